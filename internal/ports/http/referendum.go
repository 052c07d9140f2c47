package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"referendum-voting/internal/config"
	"referendum-voting/internal/model"
)

// getReferendum returns the fixed vote parameters and the encoded call
// preview for the balance/conviction given in the query.
func (ser server) getReferendum(w http.ResponseWriter, r *http.Request) {
	balance, conviction, err := ser.readReferendumParams(r)
	if err != nil {
		ser.badRequest(w, err.Error())
		return
	}

	ref, err := ser.app.Referendum(r.Context(), balance, conviction)
	if err != nil {
		ser.serverError(w, "failed to get the referendum details: "+err.Error())
		return
	}

	response, err := json.Marshal(ref)
	if err != nil {
		ser.serverError(w, "marshalling the response failed: "+err.Error())
		return
	}

	if _, err := w.Write(response); err != nil {
		ser.serverError(w, "failed to write the response: "+err.Error())
	}
}

func (ser server) readReferendumParams(r *http.Request) (balance uint64, conviction model.Conviction, err error) {
	queryParams := r.URL.Query()

	balance = 1
	if raw := queryParams.Get("balance"); raw != "" {
		balance, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, err
		}
		if balance == 0 {
			return 0, 0, errors.New("balance must be positive")
		}
	}

	conviction = model.Conviction(config.DefaultConviction)
	if raw := queryParams.Get("conviction"); raw != "" {
		value, convErr := strconv.ParseUint(raw, 10, 8)
		if convErr != nil {
			return 0, 0, convErr
		}
		conviction = model.Conviction(value)
	}

	return balance, conviction, nil
}
