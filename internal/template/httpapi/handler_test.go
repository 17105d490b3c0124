package httpapi

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/tari-project/tari-sub013/internal/template"
	"github.com/tari-project/tari-sub013/pkg/tx"
)

func newTestServer(repo *template.Repository) *httptest.Server {
	router := mux.NewRouter()
	AddRoutes(router, repo)
	return httptest.NewServer(router)
}

func TestGetNewTemplateFoundAndNotFound(t *testing.T) {
	repo := template.New(20 * time.Minute)
	key := tx.Hash{1}
	repo.SaveNewTemplateIfKeyUnique(key, template.Template{DifficultyTarget: 42}, template.TemplateWithCoinbase{})

	server := newTestServer(repo)
	defer server.Close()

	resp, err := http.Get(server.URL + "/template/new/" + hex.EncodeToString(key[:]))
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	missing := tx.Hash{2}
	resp2, err := http.Get(server.URL + "/template/new/" + hex.EncodeToString(missing[:]))
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp2.StatusCode)
	}
}

func TestGetNewTemplateMalformedHash(t *testing.T) {
	repo := template.New(20 * time.Minute)
	server := newTestServer(repo)
	defer server.Close()

	resp, err := http.Get(server.URL + "/template/new/not-hex")
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}
