package tenant

import (
	"context"
	"strings"

	"farmavida-master/pkg/dns"
	"farmavida-master/pkg/logger"

	"go.uber.org/zap"
)

type DomainRequest struct {
	AdminDomain string `json:"adminDomain" validate:"omitempty,fqdn"`
	StoreDomain string `json:"storeDomain" validate:"omitempty,fqdn"`
}

// DomainChallenge tells the tenant which TXT record to publish.
type DomainChallenge struct {
	RecordName  string `json:"record_name"`
	RecordType  string `json:"record_type"`
	RecordValue string `json:"record_value"`
}

func (s *Service) primaryDomain(t *Tenant) string {
	if t.CustomAdminDomain != "" {
		return t.CustomAdminDomain
	}
	return t.CustomStoreDomain
}

// SetCustomDomain stores the requested domains and issues a fresh
// verification code. Domains stay pending until VerifyDomain succeeds.
func (s *Service) SetCustomDomain(ctx context.Context, id string, req DomainRequest) (*DomainChallenge, error) {
	admin := strings.ToLower(strings.TrimSpace(req.AdminDomain))
	store := strings.ToLower(strings.TrimSpace(req.StoreDomain))
	if admin == "" && store == "" {
		if err := s.store.Update(ctx, id, map[string]any{
			"custom_admin_domain":      "",
			"custom_store_domain":      "",
			"domain_status":            DomainStatusNone,
			"domain_verification_code": "",
		}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	code := dns.NewVerificationCode()
	if err := s.store.Update(ctx, id, map[string]any{
		"custom_admin_domain":      admin,
		"custom_store_domain":      store,
		"domain_status":            DomainStatusPending,
		"domain_verification_code": code,
	}); err != nil {
		return nil, err
	}

	primary := admin
	if primary == "" {
		primary = store
	}
	return &DomainChallenge{
		RecordName:  dns.RecordName(primary),
		RecordType:  "TXT",
		RecordValue: code,
	}, nil
}

func (s *Service) VerifyDomain(ctx context.Context, id string) (*Tenant, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	domain := s.primaryDomain(t)
	if domain == "" || t.DomainVerificationCode == "" {
		return nil, ErrNoCustomDomain
	}

	if err := s.verifier.Verify(ctx, dns.RecordName(domain), t.DomainVerificationCode); err != nil {
		logger.FromContext(ctx).Info("domain verification pending", zap.String("tenant_id", id), zap.String("domain", domain), zap.Error(err))
		return nil, ErrDomainUnchecked
	}

	if err := s.store.Update(ctx, id, map[string]any{"domain_status": DomainStatusVerified}); err != nil {
		return nil, err
	}
	t.DomainStatus = DomainStatusVerified
	return t, nil
}
