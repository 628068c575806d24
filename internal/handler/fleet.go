package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"fleetd/fleet"
	"fleetd/internal/client"
	"fleetd/internal/common"
	"fleetd/internal/config"
	"fleetd/internal/crypto"
	"fleetd/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

const (
	// fundBatchRate paces funding at one batch per second.
	fundBatchRate = 1

	// trackedTokenDecimals: tracked SPL tokens are displayed with 6
	// decimals, the common mint configuration.
	trackedTokenDecimals = 6
)

// FleetHandler holds the session state for one subwallet fleet: the
// account set, the treasury keypair, and the progress of the current
// funding run. All mutation is funneled through its mutex.
type FleetHandler struct {
	mu sync.Mutex

	filePath  string
	fleetSize int
	batchSize int
	log       *slog.Logger

	chain  *client.SolanaClient
	market *client.CoinGeckoClient

	parentAddress string
	treasury      solana.PrivateKey
	accounts      []model.Account
	trackedMint   *solana.PublicKey

	tracker *fleet.ProgressTracker
	running bool
}

// NewFleetHandler creates the handler and restores the account set from
// the vault file when one exists.
func NewFleetHandler(log *slog.Logger) (*FleetHandler, error) {
	filePath := config.GetFleetFilePath()
	if filePath == "" {
		return nil, errors.New("FLEET_FILE_PATH not set")
	}

	h := &FleetHandler{
		filePath:  filePath,
		fleetSize: config.GetFleetSize(),
		batchSize: config.GetBatchSize(),
		log:       log,
		chain:     client.NewSolanaClient(config.GetSolanaRPCURL(), client.DefaultRetryPolicy(), log),
		market:    client.NewCoinGeckoClient(),
	}

	if err := h.restoreFromVault(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *FleetHandler) restoreFromVault() error {
	password, err := config.GetVaultPasswordBytes()
	if err != nil {
		return err
	}
	defer clear(password)

	vaultFile, data, err := crypto.LoadVault(h.filePath, password)
	if err != nil {
		// A missing or empty vault only means no fleet was generated yet.
		h.log.Info("no existing vault restored", "path", h.filePath, "reason", err.Error())
		return nil
	}

	accounts, treasury, err := fleet.AccountsFromVault(data)
	if err != nil {
		return err
	}

	h.parentAddress = vaultFile.ParentAddress
	h.accounts = accounts
	h.treasury = treasury
	h.log.Info("fleet restored from vault", "accounts", len(accounts))
	return nil
}

// Generate handles POST /fleet/generate
// @Summary      Generate subwallet fleet
// @Description  Derives the subaccount set and treasury from the parent wallet's signature and saves them to the encrypted vault
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateRequest  true  "Parent authorization"
// @Success      200      {object}  model.GenerateResponse
// @Router       /fleet/generate [post]
func (h *FleetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil || len(signature) == 0 {
		writeError(w, http.StatusBadRequest, "signature must be non-empty base64")
		return
	}

	password, err := config.GetVaultPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer clear(password)

	accounts, err := fleet.DeriveFleet(signature, h.fleetSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	treasury := fleet.DeriveTreasury(signature)

	qrCode, err := fleet.GenerateQRCode(treasury.PublicKey().String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := fleet.BuildVaultData(treasury, accounts)
	if err := crypto.SaveVault(h.filePath, req.ParentAddress, qrCode, data, password); err != nil {
		if crypto.IsFileExistsError(err) {
			msg := err.Error()
			if parent, perr := crypto.ReadParentAddress(h.filePath); perr == nil && parent != "" {
				msg = fmt.Sprintf("%s (existing fleet belongs to %s)", msg, parent)
			}
			writeError(w, http.StatusConflict, msg)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.mu.Lock()
	h.parentAddress = req.ParentAddress
	h.treasury = treasury
	h.accounts = accounts
	h.mu.Unlock()

	addresses := make([]string, len(accounts))
	for i, acc := range accounts {
		addresses[i] = acc.Address
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success:         true,
		Message:         "Fleet generated successfully",
		TreasuryAddress: treasury.PublicKey().String(),
		Addresses:       addresses,
		QR:              qrCode,
	})
}

// Accounts handles GET /fleet/accounts
// @Summary      List fleet accounts
// @Description  Returns the derived addresses with their cached balances; signing keys never leave the vault
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /fleet/accounts [get]
func (h *FleetHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.accounts) == 0 {
		writeError(w, http.StatusNotFound, "no fleet generated yet")
		return
	}

	writeJSON(w, http.StatusOK, model.AccountsResponse{
		TreasuryAddress: h.treasury.PublicKey().String(),
		Accounts:        accountViews(h.accounts),
	})
}

// refreshRequest is the optional body for POST /fleet/refresh.
type refreshRequest struct {
	TokenMint string `json:"tokenMint,omitempty"`
}

// Refresh handles POST /fleet/refresh
// @Summary      Refresh balances
// @Description  Re-reads every account's native (and optionally token) balance from the chain in bounded waves
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.RefreshResponse
// @Router       /fleet/refresh [post]
func (h *FleetHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.accounts) == 0 {
		writeError(w, http.StatusNotFound, "no fleet generated yet")
		return
	}
	if h.running {
		writeError(w, http.StatusConflict, "a funding run is already in progress")
		return
	}

	if req.TokenMint != "" {
		mint, err := solana.PublicKeyFromBase58(req.TokenMint)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid token mint: "+err.Error())
			return
		}
		h.trackedMint = &mint
	}

	failed := fleet.RefreshBalances(r.Context(), h.chain, h.accounts, h.trackedMint, h.log)

	writeJSON(w, http.StatusOK, model.RefreshResponse{
		Accounts: accountViews(h.accounts),
		Failed:   failed,
	})
}

// Fund handles POST /fleet/fund
// @Summary      Fund the fleet
// @Description  Allocates the budget across the first count accounts and executes the plan in sequential batches in the background
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        request  body      model.FundRequest  true  "Funding parameters"
// @Success      202      {object}  model.FundResponse
// @Router       /fleet/fund [post]
func (h *FleetHandler) Fund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allocReq, err := parseAllocationRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := fleet.Allocate(allocReq)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.accounts) == 0 {
		writeError(w, http.StatusNotFound, "no fleet generated yet")
		return
	}
	if allocReq.Count > len(h.accounts) {
		writeError(w, http.StatusBadRequest, "count exceeds fleet size")
		return
	}
	if h.running {
		writeError(w, http.StatusConflict, "a funding run is already in progress")
		return
	}

	totalBatches := (len(plan.Entries) + h.batchSize - 1) / h.batchSize
	tracker := fleet.NewProgressTracker(totalBatches, len(plan.Entries))

	executor, err := fleet.NewExecutor(h.chain, h.treasury, h.batchSize, ratelimit.New(fundBatchRate), tracker, h.log)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.tracker = tracker
	h.running = true

	// The executor works on a copy; the set is swapped back wholesale
	// when the run ends, so concurrent reads never observe a batch
	// mid-update.
	accounts := make([]model.Account, len(h.accounts))
	copy(accounts, h.accounts)

	go func() {
		// Background run: the request context dies with the response,
		// progress is observed via GET /fleet/progress.
		if err := executor.Fund(context.Background(), accounts, plan); err != nil {
			h.log.Error("funding run failed", "err", err)
		} else {
			h.log.Info("funding run complete", "batches", totalBatches)
		}
		h.mu.Lock()
		h.accounts = accounts
		h.running = false
		h.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, model.FundResponse{
		Started:      true,
		TotalBatches: totalBatches,
		TotalAmount:  plan.TotalAmount.String(),
		EstimatedFee: plan.EstimatedFee.String(),
	})
}

// Progress handles GET /fleet/progress
// @Summary      Funding progress
// @Description  Returns the state of the most recent funding run
// @Tags         fleet
// @Produce      json
// @Success      200  {object}  model.ProgressState
// @Router       /fleet/progress [get]
func (h *FleetHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	tracker := h.tracker
	h.mu.Unlock()

	if tracker == nil {
		writeError(w, http.StatusNotFound, "no funding run started")
		return
	}
	writeJSON(w, http.StatusOK, tracker.Snapshot())
}

// Recover handles POST /fleet/recover
// @Summary      Recover balances (not implemented)
// @Tags         fleet
// @Produce      json
// @Router       /fleet/recover [post]
func (h *FleetHandler) Recover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	accounts := h.accounts
	h.mu.Unlock()

	err := fleet.RecoverAll(r.Context(), h.chain, accounts)
	writeError(w, http.StatusNotImplemented, err.Error())
}

// Sell handles POST /fleet/sell
// @Summary      Sell tracked token (not implemented)
// @Tags         fleet
// @Produce      json
// @Router       /fleet/sell [post]
func (h *FleetHandler) Sell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	accounts := h.accounts
	h.mu.Unlock()

	err := fleet.SellAll(r.Context(), h.chain, accounts)
	writeError(w, http.StatusNotImplemented, err.Error())
}

// Import handles POST /fleet/import
// @Summary      Import a vault file
// @Description  Decrypts an uploaded vault with the running instance's password and replaces the account set wholesale
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportRequest  true  "Vault file contents"
// @Success      200      {object}  model.AccountsResponse
// @Router       /fleet/import [post]
func (h *FleetHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Vault)
	if err != nil || len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "vault must be non-empty base64")
		return
	}

	password, err := config.GetVaultPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer clear(password)

	vaultFile, data, err := crypto.DecodeVault(raw, password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	accounts, treasury, err := fleet.AccountsFromVault(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		writeError(w, http.StatusConflict, "a funding run is already in progress")
		return
	}

	if err := os.WriteFile(h.filePath, raw, 0600); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.parentAddress = vaultFile.ParentAddress
	h.treasury = treasury
	h.accounts = accounts
	h.tracker = nil
	h.log.Info("fleet imported from vault", "accounts", len(accounts))

	writeJSON(w, http.StatusOK, model.AccountsResponse{
		TreasuryAddress: treasury.PublicKey().String(),
		Accounts:        accountViews(accounts),
	})
}

// Token handles GET /fleet/token
// @Summary      Look up token metadata
// @Description  Resolves a mint address or explorer URL to the token's name and symbol
// @Tags         fleet
// @Produce      json
// @Param        q  query     string  true  "Mint address or explorer URL"
// @Success      200  {object}  model.TokenInfo
// @Router       /fleet/token [get]
func (h *FleetHandler) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	info, err := h.market.LookupToken(r.Context(), query)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func parseAllocationRequest(req model.FundRequest) (fleet.AllocationRequest, error) {
	budget, err := decimal.NewFromString(req.TotalBudget)
	if err != nil {
		return fleet.AllocationRequest{}, errors.New("invalid totalBudget: " + err.Error())
	}

	out := fleet.AllocationRequest{
		TotalBudget: budget,
		Count:       req.Count,
		Mode:        fleet.AllocationMode(req.Mode),
	}

	if out.Mode == fleet.ModeBoundedRandom {
		if out.MinAmount, err = decimal.NewFromString(req.MinAmount); err != nil {
			return fleet.AllocationRequest{}, errors.New("invalid minAmount: " + err.Error())
		}
		if out.MaxAmount, err = decimal.NewFromString(req.MaxAmount); err != nil {
			return fleet.AllocationRequest{}, errors.New("invalid maxAmount: " + err.Error())
		}
	}
	return out, nil
}

func accountViews(accounts []model.Account) []model.AccountView {
	views := make([]model.AccountView, len(accounts))
	for i, acc := range accounts {
		view := model.AccountView{
			Index:   acc.Index,
			Address: acc.Address,
			SOL:     common.LamportsToSOL(acc.NativeLamports),
		}
		if acc.TokenRaw != nil {
			view.Token = common.FormatUnits(*acc.TokenRaw, trackedTokenDecimals)
		}
		views[i] = view
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}
