package http

import (
	"net/http"

	"tripledger/internal/services"
	"tripledger/internal/storage"
)

// handlePendingTransfer returns the proposal awaiting confirmation, if any.
func (s *Server) handlePendingTransfer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.transfers.Pending()
	if !ok {
		NewJSONResponse().JSON(map[string]interface{}{"state": services.TransferIdle}).Write(w)
		return
	}
	NewJSONResponse().JSON(p).Write(w)
}

// handleProposeTransfer opens a proposal and loads its preview in one call.
// Body fields: source_plate, source_date, target_plate, target_date.
func (s *Server) handleProposeTransfer(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	source := body.TripKey("source_plate", "source_date")
	target := body.TripKey("target_plate", "target_date")

	if _, err := s.transfers.Propose(source, target); err != nil {
		writeServiceError(w, r, err)
		return
	}
	preview, err := s.transfers.Preview(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(preview).Write(w)
}

// handleCommitTransfer moves the selected allowance entries.
// Body field: entry_ids.
func (s *Server) handleCommitTransfer(w http.ResponseWriter, r *http.Request) {
	body, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	result, err := s.transfers.Commit(r.Context(), body.EntryIDs("entry_ids"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	req := result.Request
	events(r).LogTransferCommitted(r.Context(), result.ProposalID,
		req.SourcePlate+"/"+req.SourceDate, req.TargetPlate+"/"+req.TargetDate, result.Transferred)
	if result.RefreshError != "" {
		events(r).LogTransferNotRefreshed(r.Context(), result.ProposalID, result.RefreshError)
	}
	NewJSONResponse().Generation(result.Status.Generation).JSON(result).Write(w)
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	if err := s.transfers.Cancel(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleTransferHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		NotFoundError("transfer history is not recorded").Write(w)
		return
	}
	records, err := s.history.ListTransfers(r.Context(), ParseLimit(r.URL.Query(), 50))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []storage.TransferRecord{}
	}
	NewJSONResponse().JSON(map[string]interface{}{"transfers": records}).Write(w)
}
