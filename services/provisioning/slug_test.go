package provisioning

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"Farmácia São João":      "farmacia-sao-joao",
		"Drogaria ABC":           "drogaria-abc",
		"  Drogaria   Popular  ": "drogaria-popular",
		"Farma & Cia. Ltda!":     "farma-cia-ltda",
		"--Saúde -- Total--":     "saude-total",
		"Ação Çedilha Ñandú":     "acao-cedilha-nandu",
		"":                       "",
		"!!!":                    "",
		"FARMÁCIA 24H":           "farmacia-24h",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got := NormalizeSlug(in)
			require.Equal(t, want, got)
			if got != "" {
				require.Regexp(t, slugPattern, got)
			}
		})
	}
}

func TestNormalizeSlugIsDeterministic(t *testing.T) {
	require.Equal(t, NormalizeSlug("Farmácia Boa Vida"), NormalizeSlug("Farmácia Boa Vida"))
}

func TestResolverReturnsCandidateWhenFree(t *testing.T) {
	r := NewResolver(0)
	slug, err := r.Resolve(context.Background(), "drogaria-abc", func(context.Context, string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	require.Equal(t, "drogaria-abc", slug)
}

func TestResolverAppendsSuffixOnCollision(t *testing.T) {
	r := NewResolver(5)
	r.Suffix = func() int { return 42 }

	slug, err := r.Resolve(context.Background(), "drogaria-abc", func(_ context.Context, s string) (bool, error) {
		return s == "drogaria-abc", nil
	})
	require.NoError(t, err)
	require.Equal(t, "drogaria-abc-42", slug)
}

func TestResolverExhaustsAfterFiveAttempts(t *testing.T) {
	r := NewResolver(DefaultSlugAttempts)
	calls := 0
	_, err := r.Resolve(context.Background(), "farmacia", func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	require.ErrorIs(t, err, ErrSlugExhausted)
	require.Equal(t, 5, calls)
}

func TestResolverPropagatesLookupErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewResolver(3).Resolve(context.Background(), "farmacia", func(context.Context, string) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestResolverRejectsEmptyCandidate(t *testing.T) {
	_, err := NewResolver(3).Resolve(context.Background(), "", func(context.Context, string) (bool, error) {
		return false, nil
	})
	require.Error(t, err)
}
