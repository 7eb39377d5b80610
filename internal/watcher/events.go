package watcher

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// arcadiaPayABI covers the invoice lifecycle events emitted by the ArcadiaPay
// contract.
const arcadiaPayABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"},
			{"indexed": true, "name": "issuer", "type": "address"},
			{"indexed": true, "name": "payer", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": false, "name": "token", "type": "address"},
			{"indexed": false, "name": "metadataURI", "type": "string"}
		],
		"name": "InvoiceCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"},
			{"indexed": true, "name": "payer", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": false, "name": "fee", "type": "uint256"}
		],
		"name": "InvoicePaid",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"}
		],
		"name": "InvoiceReleased",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"}
		],
		"name": "InvoiceRefunded",
		"type": "event"
	}
]`

var (
	parsedArcadiaPayABI abi.ABI
	parseArcadiaPayOnce sync.Once
)

func arcadiaABI() abi.ABI {
	parseArcadiaPayOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(arcadiaPayABI))
		if err != nil {
			panic(fmt.Sprintf("invalid ArcadiaPay event ABI: %v", err))
		}
		parsedArcadiaPayABI = parsed
	})

	return parsedArcadiaPayABI
}

// Event names.
const (
	EventInvoiceCreated  = "InvoiceCreated"
	EventInvoicePaid     = "InvoicePaid"
	EventInvoiceReleased = "InvoiceReleased"
	EventInvoiceRefunded = "InvoiceRefunded"
)

// InvoiceCreated is emitted when an issuer opens a new invoice.
type InvoiceCreated struct {
	ID          *big.Int
	Issuer      common.Address
	Payer       common.Address
	Amount      *big.Int
	Token       common.Address
	MetadataURI string
}

// InvoicePaid is emitted when a payer funds an invoice; Fee is the protocol's
// cut, already deducted from Amount.
type InvoicePaid struct {
	ID     *big.Int
	Payer  common.Address
	Amount *big.Int
	Fee    *big.Int
}

// InvoiceReleased is emitted when escrowed funds are released to the issuer.
type InvoiceReleased struct {
	ID *big.Int
}

// InvoiceRefunded is emitted when escrowed funds are returned to the payer.
type InvoiceRefunded struct {
	ID *big.Int
}

// Event is a decoded invoice event with its source log position.
type Event struct {
	Name        string
	BlockNumber uint64
	TxHash      common.Hash
	Payload     any
}

// DecodeLog decodes a raw contract log into a typed invoice event. Logs whose
// first topic matches none of the invoice events return (nil, nil); the
// contract emits other events this tooling does not track.
func DecodeLog(log ethtypes.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	contractABI := arcadiaABI()
	event, err := contractABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, nil //nolint:nilerr // unknown topic, not an error
	}

	decoded := &Event{
		Name:        event.Name,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
	}

	switch event.Name {
	case EventInvoiceCreated:
		payload, err := decodeInvoiceCreated(contractABI, log)
		if err != nil {
			return nil, err
		}
		decoded.Payload = payload
	case EventInvoicePaid:
		payload, err := decodeInvoicePaid(contractABI, log)
		if err != nil {
			return nil, err
		}
		decoded.Payload = payload
	case EventInvoiceReleased:
		if err := checkTopicCount(log, 2); err != nil {
			return nil, err
		}
		decoded.Payload = InvoiceReleased{ID: log.Topics[1].Big()}
	case EventInvoiceRefunded:
		if err := checkTopicCount(log, 2); err != nil {
			return nil, err
		}
		decoded.Payload = InvoiceRefunded{ID: log.Topics[1].Big()}
	}

	return decoded, nil
}

func decodeInvoiceCreated(contractABI abi.ABI, log ethtypes.Log) (InvoiceCreated, error) {
	if err := checkTopicCount(log, 4); err != nil {
		return InvoiceCreated{}, err
	}

	values, err := contractABI.Unpack(EventInvoiceCreated, log.Data)
	if err != nil {
		return InvoiceCreated{}, fmt.Errorf("failed to decode InvoiceCreated data: %w", err)
	}
	if len(values) != 3 {
		return InvoiceCreated{}, fmt.Errorf("unexpected InvoiceCreated arity: %d", len(values))
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return InvoiceCreated{}, fmt.Errorf("unexpected InvoiceCreated amount type %T", values[0])
	}
	token, ok := values[1].(common.Address)
	if !ok {
		return InvoiceCreated{}, fmt.Errorf("unexpected InvoiceCreated token type %T", values[1])
	}
	uri, ok := values[2].(string)
	if !ok {
		return InvoiceCreated{}, fmt.Errorf("unexpected InvoiceCreated metadataURI type %T", values[2])
	}

	return InvoiceCreated{
		ID:          log.Topics[1].Big(),
		Issuer:      common.BytesToAddress(log.Topics[2].Bytes()),
		Payer:       common.BytesToAddress(log.Topics[3].Bytes()),
		Amount:      amount,
		Token:       token,
		MetadataURI: uri,
	}, nil
}

func decodeInvoicePaid(contractABI abi.ABI, log ethtypes.Log) (InvoicePaid, error) {
	if err := checkTopicCount(log, 3); err != nil {
		return InvoicePaid{}, err
	}

	values, err := contractABI.Unpack(EventInvoicePaid, log.Data)
	if err != nil {
		return InvoicePaid{}, fmt.Errorf("failed to decode InvoicePaid data: %w", err)
	}
	if len(values) != 2 {
		return InvoicePaid{}, fmt.Errorf("unexpected InvoicePaid arity: %d", len(values))
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return InvoicePaid{}, fmt.Errorf("unexpected InvoicePaid amount type %T", values[0])
	}
	fee, ok := values[1].(*big.Int)
	if !ok {
		return InvoicePaid{}, fmt.Errorf("unexpected InvoicePaid fee type %T", values[1])
	}

	return InvoicePaid{
		ID:     log.Topics[1].Big(),
		Payer:  common.BytesToAddress(log.Topics[2].Bytes()),
		Amount: amount,
		Fee:    fee,
	}, nil
}

func checkTopicCount(log ethtypes.Log, want int) error {
	if len(log.Topics) != want {
		return fmt.Errorf("event %s: %d topics, want %d", log.Topics[0], len(log.Topics), want)
	}

	return nil
}
