// Package httpapi exposes TemplateRepository's read paths to miner-facing
// clients over HTTP (spec.md §2: "The TemplateRepository... is read by
// miner-facing endpoints"). Routing and error-response shape are grounded
// on the teacher's apiserver/server/routes.go (makeHandler wrapping a
// route-params/query-params handler signature, a uniform JSON error
// envelope).
package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tari-project/tari-sub013/internal/template"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

const routeParamHash = "hash"

// HandlerError is the uniform JSON error envelope returned by every
// endpoint, mirroring the teacher's utils.HandlerError.
type HandlerError struct {
	ErrorCode int    `json:"-"`
	Message   string `json:"message"`
}

func newHandlerError(code int, format string, args ...interface{}) *HandlerError {
	return &HandlerError{ErrorCode: code, Message: fmt.Sprintf(format, args...)}
}

func makeHandler(handler func(routeParams map[string]string) (interface{}, *HandlerError)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, hErr := handler(mux.Vars(r))
		if hErr != nil {
			w.WriteHeader(hErr.ErrorCode)
			_ = json.NewEncoder(w).Encode(hErr)
			return
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}

// AddRoutes registers TemplateRepository's miner-facing read endpoints on
// router.
func AddRoutes(router *mux.Router, repo *template.Repository) {
	router.HandleFunc(
		fmt.Sprintf("/template/new/{%s}", routeParamHash),
		makeHandler(getNewTemplateHandler(repo)),
	).Methods("GET")

	router.HandleFunc(
		fmt.Sprintf("/template/final/{%s}", routeParamHash),
		makeHandler(getFinalTemplateHandler(repo)),
	).Methods("GET")

	router.HandleFunc(
		fmt.Sprintf("/template/blocks-contains/{%s}", routeParamHash),
		makeHandler(getBlocksContainsHandler(repo)),
	).Methods("GET")
}

func parseHash(routeParams map[string]string) (tx.Hash, *HandlerError) {
	raw, err := hex.DecodeString(routeParams[routeParamHash])
	if err != nil {
		return tx.Hash{}, newHandlerError(http.StatusUnprocessableEntity, "couldn't parse hash: %s", err)
	}
	h, err := tx.HashFromBytes(raw)
	if err != nil {
		return tx.Hash{}, newHandlerError(http.StatusUnprocessableEntity, "couldn't parse hash: %s", err)
	}
	return h, nil
}

func getNewTemplateHandler(repo *template.Repository) func(map[string]string) (interface{}, *HandlerError) {
	return func(routeParams map[string]string) (interface{}, *HandlerError) {
		hash, hErr := parseHash(routeParams)
		if hErr != nil {
			return nil, hErr
		}
		tmpl, withCoinbase, ok := repo.GetNewTemplate(hash)
		if !ok {
			return nil, newHandlerError(http.StatusNotFound, "no new template for hash %s", hash)
		}
		return struct {
			Template     template.Template             `json:"template"`
			WithCoinbase template.TemplateWithCoinbase `json:"templateWithCoinbase"`
		}{tmpl, withCoinbase}, nil
	}
}

func getFinalTemplateHandler(repo *template.Repository) func(map[string]string) (interface{}, *HandlerError) {
	return func(routeParams map[string]string) (interface{}, *HandlerError) {
		hash, hErr := parseHash(routeParams)
		if hErr != nil {
			return nil, hErr
		}
		final, ok := repo.GetFinalTemplate(hash)
		if !ok {
			return nil, newHandlerError(http.StatusNotFound, "no final template for hash %s", hash)
		}
		return final, nil
	}
}

func getBlocksContainsHandler(repo *template.Repository) func(map[string]string) (interface{}, *HandlerError) {
	return func(routeParams map[string]string) (interface{}, *HandlerError) {
		hash, hErr := parseHash(routeParams)
		if hErr != nil {
			return nil, hErr
		}
		final, ok := repo.BlocksContains(hash)
		if !ok {
			return nil, newHandlerError(http.StatusNotFound, "no template with predecessor hash %s", hash)
		}
		return final, nil
	}
}
