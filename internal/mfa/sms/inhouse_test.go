package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInhouseClient_Send_Success(t *testing.T) {
	var gotHeader http.Header
	var gotBody inhouseRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotHeader = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewInhouseClient(srv.Client(), srv.URL, "key-1", "Acme")
	if err := c.Send(context.Background(), "+12015550123", "Your SMS code is 123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotBody.From != "Acme" || gotBody.To != "+12015550123" || gotBody.Text != "Your SMS code is 123456" {
		t.Errorf("body = %+v", gotBody)
	}
	if gotHeader.Get("X-Api-Key") != "key-1" {
		t.Errorf("X-Api-Key = %q", gotHeader.Get("X-Api-Key"))
	}
	if gotHeader.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeader.Get("Content-Type"))
	}
	if gotHeader.Get("User-Agent") != userAgent {
		t.Errorf("User-Agent = %q", gotHeader.Get("User-Agent"))
	}
}

func TestInhouseClient_Send_Non201(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("gateway says no"))
		}))
		c := NewInhouseClient(srv.Client(), srv.URL, "k", "s")
		err := c.Send(context.Background(), "+12015550123", "hi")
		srv.Close()

		var de *DeliveryError
		if !errors.As(err, &de) {
			t.Fatalf("status %d: err = %v, want *DeliveryError", status, err)
		}
		if de.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", de.StatusCode, status)
		}
		if !strings.Contains(de.Cause, "gateway says no") {
			t.Errorf("Cause = %q, want gateway body", de.Cause)
		}
	}
}

func TestInhouseClient_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewInhouseClient(nil, url, "k", "s").Send(context.Background(), "+12015550123", "hi")
	var de *DeliveryError
	if !errors.As(err, &de) || de.StatusCode != 0 || de.Err == nil {
		t.Fatalf("err = %#v, want transport DeliveryError", err)
	}
}

func TestInhouseClient_Send_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewInhouseClient(&http.Client{Timeout: 50 * time.Millisecond}, srv.URL, "k", "s")
	var de *DeliveryError
	if err := c.Send(context.Background(), "+12015550123", "hi"); !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DeliveryError", err)
	}
}

func TestInhouseClient_Send_NoURI(t *testing.T) {
	var de *DeliveryError
	if err := NewInhouseClient(nil, "", "k", "s").Send(context.Background(), "1", "hi"); !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DeliveryError", err)
	}
}
