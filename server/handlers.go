package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-checkin/checkin"
)

type response struct {
	Success   bool   `json:"success"`
	Message   string `json:"msg,omitempty"`
	Code      string `json:"code,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
	Inserted  bool   `json:"inserted,omitempty"`
	Updated   bool   `json:"updated,omitempty"`
	Err       string `json:"err,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type form struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, map[string]any{"status": "ok"})
}

// callback is the OAuth2 redirect target. The authorisation code is echoed back and, if an
// authoriser is configured, exchanged for an access token.
func (h *handler) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	if h.authoriser != nil && code != "" {
		if _, err := h.authoriser.Exchange(r.Context(), code); err != nil {
			log.Warnf("OAuth2 callback: %v", err)
			reply(w, http.StatusInternalServerError, response{Success: false, Err: err.Error()})
			return
		}

		log.Infof("OAuth2 callback: access token saved")
	}

	reply(w, http.StatusOK, map[string]string{"code": code})
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	code, err := h.issuer.Issue(r.Context())
	if err != nil {
		log.Warnf("generate: %v", err)
		reply(w, http.StatusBadRequest, response{
			Success:   false,
			Err:       err.Error(),
			Retryable: checkin.Retryable(err),
		})
		return
	}

	reply(w, http.StatusOK, response{
		Success:   true,
		Message:   "Successfully updated the generated code in Google Sheets",
		Code:      code.Token,
		ExpiresIn: code.ExpiresAt.UnixMilli(),
	})
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	rq, err := parse(w, r)
	if err != nil {
		reply(w, http.StatusBadRequest, response{
			Success: false,
			Message: h.invalid(),
			Err:     err.Error(),
		})
		return
	}

	outcome, err := h.reconciler.CheckIn(r.Context(), rq.Code, rq.Email)
	if err != nil {
		status, rsp := h.failed(err)
		reply(w, status, rsp)
		return
	}

	reply(w, http.StatusOK, response{
		Success:  true,
		Message:  "Successfully updated/upserted member's check in count in Google Sheets",
		Inserted: outcome.Inserted,
		Updated:  outcome.Updated(),
	})
}

func (h *handler) failed(err error) (int, response) {
	var throttled *checkin.ThrottledError

	switch {
	case errors.Is(err, checkin.ErrInvalidEmail), errors.Is(err, checkin.ErrInvalidCode):
		return http.StatusBadRequest, response{Success: false, Message: h.invalid(), Err: err.Error()}

	case errors.As(err, &throttled):
		return http.StatusBadRequest, response{Success: false, Message: throttled.Error(), Err: throttled.Error()}

	case errors.Is(err, checkin.ErrUnauthorized):
		return http.StatusForbidden, response{
			Success: false,
			Message: "Check your code and the code's expiration date again, currently unauthorized to sign in",
		}
	}

	log.Warnf("check-in: %v", err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, checkin.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, checkin.ErrLocked):
		status = http.StatusServiceUnavailable
	}

	return status, response{
		Success:   false,
		Message:   "Unable to record check in, please try again later",
		Err:       err.Error(),
		Retryable: checkin.Retryable(err),
	}
}

func (h *handler) invalid() string {
	return fmt.Sprintf("Invalid form information sent to server, check if code is valid and email must be @%v", strings.TrimPrefix(h.reconciler.Domain(), "@"))
}

// parse accepts either a JSON or a URL encoded form body.
func parse(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	mediatype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediatype {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form (%w)", err)
		}

		return &form{
			Email: r.PostFormValue("email"),
			Code:  r.PostFormValue("code"),
		}, nil

	default:
		rq := form{}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return nil, fmt.Errorf("invalid request (%w)", err)
		}

		return &rq, nil
	}
}

func reply(w http.ResponseWriter, status int, rsp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Warnf("error encoding response (%v)", err)
	}
}
