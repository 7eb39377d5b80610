package service

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	arcpay "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/sdk/evm"
	"github.com/arcadia-pay/arcpay/types"
)

const defaultAuditListLimit = 100

type encodeRequest struct {
	Signature   string       `json:"signature" validate:"required"`
	Args        []any        `json:"args"`
	Target      string       `json:"target,omitempty"`
	Value       json.Number  `json:"value,omitempty"`
	Predecessor *common.Hash `json:"predecessor,omitempty"`
	Salt        *common.Hash `json:"salt,omitempty"`
	SignOpID    bool         `json:"sign_opid"`
}

type encodeResponse struct {
	Data      hexutil.Bytes    `json:"data"`
	Selector  hexutil.Bytes    `json:"selector"`
	OpID      *common.Hash     `json:"opId,omitempty"`
	SaltUsed  *common.Hash     `json:"salt_used,omitempty"`
	Signature *types.Signature `json:"signature,omitempty"`
	SignerID  string           `json:"signer_kid,omitempty"`
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")

		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	schema, err := evm.ParseSignature(req.Signature)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}
	data, err := schema.Pack(req.Args)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	resp := encodeResponse{Data: data, Selector: schema.Selector()}
	entry := audit.Entry{
		Action: "encode",
		Actor:  r.RemoteAddr,
		Note:   req.Signature,
	}

	if req.Target != "" {
		if !common.IsHexAddress(req.Target) {
			s.writeError(w, http.StatusBadRequest, "invalid target address")

			return
		}

		value := big.NewInt(0)
		if req.Value != "" {
			if _, ok := value.SetString(req.Value.String(), 10); !ok {
				s.writeError(w, http.StatusBadRequest, "invalid value")

				return
			}
		}

		target := common.HexToAddress(req.Target)
		result, err := arcpay.ComputeSingleOpID(types.Operation{
			Target:      target,
			Value:       value,
			Data:        data,
			Predecessor: req.Predecessor,
			Salt:        req.Salt,
		})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())

			return
		}

		resp.OpID = &result.OpID
		resp.SaltUsed = &result.Salt
		entry.OpID = result.OpID
		entry.Salt = &result.Salt
		entry.Targets = []common.Address{target}
		entry.Datas = []hexutil.Bytes{data}

		if req.SignOpID {
			if s.deps.Signer == nil {
				s.writeError(w, http.StatusNotImplemented, "no signer configured")

				return
			}
			sig, err := s.deps.Signer.SignOperationID(r.Context(), result.OpID)
			if err != nil {
				s.lggr.Error("signing failed", zap.Error(err))
				s.writeError(w, http.StatusInternalServerError, "signing failed")

				return
			}
			resp.Signature = &sig
			resp.SignerID = s.deps.Signer.ID()
			entry.Actor = s.deps.Signer.ID()
		}
	}

	if s.deps.Audit != nil {
		s.deps.Audit.Record(r.Context(), entry)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	OpID    common.Hash          `json:"opId"`
	Exists  bool                 `json:"exists"`
	State   types.OperationState `json:"state"`
	Pending bool                 `json:"pending"`
	Ready   bool                 `json:"ready"`
	Done    bool                 `json:"done"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Inspector == nil {
		s.writeError(w, http.StatusServiceUnavailable, "timelock access not configured")

		return
	}

	opID, ok := s.opIDParam(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	exists, err := s.deps.Inspector.IsOperation(ctx, opID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}
	pending, err := s.deps.Inspector.IsOperationPending(ctx, opID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}
	ready, err := s.deps.Inspector.IsOperationReady(ctx, opID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}
	done, err := s.deps.Inspector.IsOperationDone(ctx, opID)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		OpID:    opID,
		Exists:  exists,
		State:   types.StateFromFlags(pending, ready, done),
		Pending: pending,
		Ready:   ready,
		Done:    done,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.deps.Verifier == nil {
		s.writeError(w, http.StatusServiceUnavailable, "timelock access not configured")

		return
	}

	opID, ok := s.opIDParam(w, r)
	if !ok {
		return
	}

	interval, ok := s.durationParam(w, r, "interval")
	if !ok {
		return
	}
	timeout, ok := s.durationParam(w, r, "timeout")
	if !ok {
		return
	}

	result, err := s.deps.Verifier.Verify(r.Context(), opID, interval, timeout)
	if err != nil {
		var timeoutErr *arcpay.TimeoutError
		if errors.As(err, &timeoutErr) {
			s.writeError(w, http.StatusGatewayTimeout, timeoutErr.Error())

			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSignerInfo(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Signer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no signer configured")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"signer_kid":       s.deps.Signer.ID(),
		"ethereum_address": s.deps.Signer.Address().Hex(),
	})
}

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	if s.deps.Browser == nil {
		s.writeError(w, http.StatusServiceUnavailable, "audit storage not configured")

		return
	}

	limit := defaultAuditListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid limit")

			return
		}
		limit = parsed
	}

	keys, err := s.deps.Browser.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"items": keys})
}

func (s *Server) handleAuditGet(w http.ResponseWriter, r *http.Request) {
	if s.deps.Browser == nil {
		s.writeError(w, http.StatusServiceUnavailable, "audit storage not configured")

		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, "key is required")

		return
	}

	entry, err := s.deps.Browser.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())

		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Alerter == nil {
		s.writeError(w, http.StatusServiceUnavailable, "watcher not configured")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"items": s.deps.Alerter.Recent()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) opIDParam(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	raw := r.URL.Query().Get("opId")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "opId is required")

		return common.Hash{}, false
	}

	decoded, err := hexutil.Decode(raw)
	if err != nil || len(decoded) != common.HashLength {
		s.writeError(w, http.StatusBadRequest, "opId must be a 32-byte hex string")

		return common.Hash{}, false
	}

	return common.BytesToHash(decoded), true
}

// durationParam parses an optional duration query parameter; absent means
// zero, which the verifier maps to its default.
func (s *Server) durationParam(w http.ResponseWriter, r *http.Request, name string) (time.Duration, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)

		return 0, false
	}

	return d, true
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}

	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.lggr.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
