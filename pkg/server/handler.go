package server

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/liquidgenlabs/faucet/pkg/metrics"
)

// Machine-readable failure reasons returned in error bodies.
const (
	reasonRateLimited        = "rate_limited"
	reasonCooldownActive     = "cooldown_active"
	reasonUnauthorized       = "unauthorized"
	reasonInvalidRequest     = "invalid_request"
	reasonInvalidAddress     = "invalid_address"
	reasonInvalidAmount      = "invalid_amount"
	reasonTokenRequired      = "verification_token_required"
	reasonVerificationFailed = "verification_failed"
	reasonVerificationError  = "verification_error"
	reasonMintFailed         = "mint_failed"
)

type faucetRequest struct {
	Address        string `json:"address"`
	Amount         uint64 `json:"amount"`
	RecaptchaToken string `json:"recaptcha_token,omitempty"`

	// APIKey is accepted for wire compatibility but never trusted; the
	// credential check reads the X-API-Key header.
	APIKey string `json:"api_key,omitempty"`
}

type faucetResponse struct {
	Signature string `json:"signature"`
}

// handleFaucet runs the admission gates in strict order and produces exactly
// one outcome per request. Local cooldown state is only recorded after the
// ledger confirms the mint.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", uuid.NewString())

	var req faucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordFaucetRequest("bad_request")
		s.writeError(w, http.StatusBadRequest, reasonInvalidRequest)
		return
	}

	log.Info("faucet request", "address", req.Address, "amount", req.Amount, "from", clientIP(r))

	// 1. Sender-keyed admission limit.
	if s.cfg.Global != nil && !s.cfg.Global.Allow() {
		metrics.RecordFaucetRequest("rate_limited")
		s.writeError(w, http.StatusTooManyRequests, reasonRateLimited)
		return
	}
	if !s.cfg.Limiter.Admit(clientIP(r)) {
		metrics.RecordFaucetRequest("rate_limited")
		s.writeError(w, http.StatusTooManyRequests, reasonRateLimited)
		return
	}

	// 2. Static API key, compared in constant time against the header.
	if s.cfg.APIKey != "" {
		provided := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.APIKey)) != 1 {
			metrics.RecordFaucetRequest("unauthorized")
			s.writeError(w, http.StatusUnauthorized, reasonUnauthorized)
			return
		}
	}

	// 3. Human verification, when configured.
	if s.cfg.Verifier != nil {
		if req.RecaptchaToken == "" {
			metrics.RecordFaucetRequest("bad_request")
			s.writeError(w, http.StatusBadRequest, reasonTokenRequired)
			return
		}
		ok, err := s.cfg.Verifier.Verify(r.Context(), req.RecaptchaToken)
		metrics.RecordVerification(err, ok)
		if err != nil {
			log.Error("verification call failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, reasonVerificationError)
			return
		}
		if !ok {
			metrics.RecordFaucetRequest("verification_failed")
			s.writeError(w, http.StatusBadRequest, reasonVerificationFailed)
			return
		}
	}

	// 4. Advisory local cooldown; the on-chain check is the authority.
	if !s.cfg.Cooldowns.Allow(req.Address) {
		metrics.RecordFaucetRequest("cooldown")
		s.writeError(w, http.StatusTooManyRequests, reasonCooldownActive)
		return
	}

	// 5. Destination address and amount validation.
	recipient, ok := parseAddress(req.Address)
	if !ok {
		metrics.RecordFaucetRequest("bad_request")
		s.writeError(w, http.StatusBadRequest, reasonInvalidAddress)
		return
	}
	if req.Amount == 0 || (s.cfg.MaxAmount > 0 && req.Amount > s.cfg.MaxAmount) {
		metrics.RecordFaucetRequest("bad_request")
		s.writeError(w, http.StatusBadRequest, reasonInvalidAmount)
		return
	}

	// 6. Submit to the authorization program. A dropped client connection
	// must not abort the in-flight submission.
	start := time.Now()
	sig, err := s.cfg.Minter.Mint(context.WithoutCancel(r.Context()), recipient, req.Amount)
	if err != nil {
		log.Error("mint failed", "address", req.Address, "error", err)
		metrics.RecordFaucetRequest("error")
		s.writeError(w, http.StatusInternalServerError, reasonMintFailed)
		return
	}
	metrics.RecordMint(time.Since(start))

	s.cfg.Cooldowns.Record(req.Address)
	metrics.RecordFaucetRequest("minted")

	log.Info("mint confirmed", "address", req.Address, "amount", req.Amount, "signature", sig)
	s.writeJSON(w, http.StatusOK, faucetResponse{Signature: sig.String()})
}

// parseAddress validates a base58-encoded 32-byte public key.
func parseAddress(address string) (solana.PublicKey, bool) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, false
	}
	return solana.PublicKeyFromBytes(raw), true
}

// clientIP returns the request's remote IP, relying on middleware.RealIP to
// have resolved forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
