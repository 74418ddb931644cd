package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/microscaling/regskin/config"
)

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(registryURL string, port int) config.Config {
	return config.Config{
		RegistryURL:     registryURL,
		DisplayRegistry: "fakereg",
		CatalogLimit:    100,
		HTTPTimeout:     5 * time.Second,
		RefreshInterval: time.Minute,
		StartupTimeout:  5 * time.Second,
		Listen:          "127.0.0.1",
		Port:            port,
	}
}

func TestRunServesAndShutsDown(t *testing.T) {
	reg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/_catalog":
			fmt.Fprintln(w, `{"repositories": ["team/app"]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer reg.Close()

	port := freePort(t)
	c := testConfig(reg.URL, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, c)
	}()

	var res *http.Response
	var err error
	for i := 0; i < 50; i++ {
		res, err = http.Get(fmt.Sprintf("http://%s/healthz", c.Address()))
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err != nil {
		t.Fatalf("Server never came up: %v", err)
	}
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("Unexpected health check status %d", res.StatusCode)
	}

	cancel()

	select {
	case err = <-done:
		if err != nil {
			t.Errorf("Unexpected error from shutdown: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("Server did not shut down")
	}
}
