package arcpay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

// Proposal kinds.
const (
	ProposalKindSingle = "single"
	ProposalKindBatch  = "batch"
)

// Proposal is an operator-authored schedule request: one operation or one
// batch, plus the delay to schedule it with. Proposals are plain JSON files so
// they can be reviewed and diffed before submission.
type Proposal struct {
	Kind      string                `json:"kind"`
	Delay     types.Duration        `json:"delay"`
	Operation *types.Operation      `json:"operation,omitempty"`
	Batch     *types.BatchOperation `json:"batch,omitempty"`
}

// LoadProposal reads and validates a proposal file.
func LoadProposal(path string) (*Proposal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadProposal(f)
}

// ReadProposal decodes and validates a proposal document from the reader.
func ReadProposal(r io.Reader) (*Proposal, error) {
	var proposal Proposal
	if err := json.NewDecoder(r).Decode(&proposal); err != nil {
		return nil, types.NewEncodingError("malformed proposal document", err)
	}
	if err := proposal.Validate(); err != nil {
		return nil, err
	}

	return &proposal, nil
}

// Validate checks the proposal's shape before any computation.
func (p *Proposal) Validate() error {
	switch p.Kind {
	case ProposalKindSingle:
		if p.Operation == nil {
			return types.NewValidationError("operation", "single proposal requires an operation")
		}

		return p.Operation.Validate()
	case ProposalKindBatch:
		if p.Batch == nil {
			return types.NewValidationError("batch", "batch proposal requires a batch")
		}

		return p.Batch.Validate()
	default:
		return types.NewValidationError("kind", fmt.Sprintf("unknown proposal kind %q", p.Kind))
	}
}

// Compute returns the proposal's operation identifier and salt without
// touching the chain.
func (p *Proposal) Compute() (OpResult, error) {
	if err := p.Validate(); err != nil {
		return OpResult{}, err
	}

	if p.Kind == ProposalKindSingle {
		return ComputeSingleOpID(*p.Operation)
	}

	return ComputeBatchOpID(*p.Batch)
}

// Schedule submits the proposal through the scheduler and returns the
// operation identifier the timelock will track it under.
func (p *Proposal) Schedule(ctx context.Context, scheduler sdk.TimelockScheduler) (common.Hash, error) {
	if err := p.Validate(); err != nil {
		return common.Hash{}, err
	}

	if p.Kind == ProposalKindSingle {
		return scheduler.Schedule(ctx, *p.Operation, p.Delay)
	}

	return scheduler.ScheduleBatch(ctx, *p.Batch, p.Delay)
}

// Execute submits the proposal's calls for execution. The operation must be
// scheduled and past its delay; the state is read first so a premature execute
// fails with a typed error instead of a contract revert.
func (p *Proposal) Execute(ctx context.Context, scheduler sdk.TimelockScheduler) (common.Hash, error) {
	result, err := p.Compute()
	if err != nil {
		return common.Hash{}, err
	}

	exists, err := scheduler.IsOperation(ctx, result.OpID)
	if err != nil {
		return common.Hash{}, err
	}
	if !exists {
		return common.Hash{}, &OperationNotFoundError{OpID: result.OpID}
	}

	ready, err := scheduler.IsOperationReady(ctx, result.OpID)
	if err != nil {
		return common.Hash{}, err
	}
	if !ready {
		return common.Hash{}, &OperationNotReadyError{OpID: result.OpID}
	}

	if p.Kind == ProposalKindSingle {
		return scheduler.Execute(ctx, *p.Operation)
	}

	return scheduler.ExecuteBatch(ctx, *p.Batch)
}
