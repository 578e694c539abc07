package dns

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

const RecordPrefix = "_farmavida-verification"

// TXTVerifier checks that a domain publishes an expected TXT value.
type TXTVerifier interface {
	Verify(ctx context.Context, hostname, expectedCode string) error
}

type Verifier struct {
	Resolvers    []string
	Timeout      time.Duration
	SystemLookup bool
}

// NewVerifier queries public resolvers first, then the system resolver.
func NewVerifier() *Verifier {
	return &Verifier{
		Resolvers:    []string{"1.1.1.1:53", "8.8.8.8:53"},
		Timeout:      3 * time.Second,
		SystemLookup: true,
	}
}

// RecordName is where a tenant publishes the verification code for domain.
func RecordName(domain string) string {
	return RecordPrefix + "." + strings.TrimSuffix(strings.TrimSpace(domain), ".")
}

func NewVerificationCode() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "farmavida-" + hex.EncodeToString(b)
}

func (v *Verifier) Verify(ctx context.Context, hostname, expectedCode string) error {
	if strings.TrimSpace(hostname) == "" {
		return fmt.Errorf("hostname cannot be empty")
	}

	if strings.TrimSpace(expectedCode) == "" {
		return fmt.Errorf("expectedCode cannot be empty")
	}

	host := dns.Fqdn(hostname)
	zap.L().Debug("Verifying DNS TXT record", zap.String("host", host))

	for _, resolver := range v.Resolvers {
		if err := v.queryTXTWithResolver(ctx, host, expectedCode, resolver); err == nil {
			zap.L().Info("DNS TXT verification success", zap.String("resolver", resolver), zap.String("hostname", hostname))
			return nil
		}
	}

	if v.SystemLookup {
		zap.L().Debug("Falling back to system resolver", zap.String("hostname", hostname))
		if err := queryTXTSystem(ctx, host, expectedCode); err == nil {
			zap.L().Info("DNS TXT verification success (system resolver)", zap.String("hostname", hostname))
			return nil
		}
	}

	return fmt.Errorf("no matching TXT record found for %s", hostname)
}

func (v *Verifier) queryTXTWithResolver(ctx context.Context, hostname, expectedCode, resolver string) error {
	client := &dns.Client{
		Timeout: v.Timeout,
	}

	msg := dns.Msg{}
	msg.SetQuestion(hostname, dns.TypeTXT)

	resp, _, err := client.ExchangeContext(ctx, &msg, resolver)
	if err != nil {
		zap.L().Debug("DNS query failed", zap.String("resolver", resolver), zap.Error(err))
		return err
	}

	for _, ans := range resp.Answer {
		if txt, ok := ans.(*dns.TXT); ok {
			for _, record := range txt.Txt {
				if strings.TrimSpace(record) == expectedCode {
					return nil
				}
			}
		}
	}

	return fmt.Errorf("no matching TXT record found at resolver %s", resolver)
}

func queryTXTSystem(ctx context.Context, hostname, expectedCode string) error {
	records, err := net.DefaultResolver.LookupTXT(ctx, hostname)
	if err != nil {
		return fmt.Errorf("system resolver TXT lookup failed: %w", err)
	}

	for _, r := range records {
		if strings.TrimSpace(r) == expectedCode {
			return nil
		}
	}

	return fmt.Errorf("no matching TXT record found via system resolver")
}
