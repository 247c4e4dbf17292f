package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/shpitdev/ses-campaign-mailer/internal/mockses"
)

func main() {
	addr := defaultString("MOCK_SES_ADDR", ":8080")
	reject := defaultString("MOCK_SES_REJECT", "")

	fs := flag.NewFlagSet("mock-ses", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address (env: MOCK_SES_ADDR)")
	fs.StringVar(&reject, "reject", reject, "Comma-separated addresses answered with MessageRejected (env: MOCK_SES_REJECT)")
	_ = fs.Parse(os.Args[1:])

	srv := mockses.New()
	rejected := splitCSV(reject)
	for _, address := range rejected {
		srv.Reject(address, "MessageRejected", "Email address is not verified. The following identities failed the check: "+address)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-ses listening on %s (rejecting %d addresses)\n", addr, len(rejected))
	if strings.HasPrefix(addr, ":") {
		_, _ = fmt.Fprintf(os.Stdout, "point the mailer at it with SES_ENDPOINT=http://localhost%s\n", addr)
	}
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
