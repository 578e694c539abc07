package rediskey

import "fmt"

const (
	SequencePrefix = "seq"
	TenantPrefix   = "tenant"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildSequenceKey returns "seq:{name}".
func BuildSequenceKey(name string) string {
	return NamespaceKey(SequencePrefix, name)
}

// BuildDailySequenceKey returns "seq:{prefix}:{day}".
func BuildDailySequenceKey(prefix, day string) string {
	return NamespaceKey(SequencePrefix, NamespaceKey(prefix, day))
}

// BuildTenantIDKey returns "tenant:{tenantID}".
func BuildTenantIDKey(tenantID string) string {
	return NamespaceKey(TenantPrefix, tenantID)
}
