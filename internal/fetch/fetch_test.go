package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

func TestDocumentDownloads(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"toc_dictionary": {}}`))
	}))
	defer srv.Close()

	data, err := NewClient().Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if string(data) != `{"toc_dictionary": {}}` {
		t.Fatalf("body = %q", data)
	}
	if gotAccept != "application/json" {
		t.Fatalf("accept header = %q", gotAccept)
	}
}

func TestDocumentNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().Document(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if errdef.CodeOf(err) != errdef.CodeHTTP {
		t.Fatalf("code = %q", errdef.CodeOf(err))
	}
}

func TestDocumentConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient().Document(context.Background(), url)
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if errdef.CodeOf(err) != errdef.CodeHTTP {
		t.Fatalf("code = %q", errdef.CodeOf(err))
	}
}
