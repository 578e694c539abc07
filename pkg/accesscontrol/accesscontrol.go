package accesscontrol

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"os"
	"strings"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/errutil"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const RoleHeader = "X-Master-Role"

var (
	//go:embed rbac_model.conf
	defaultModel string
	//go:embed rbac_policy.csv
	defaultPolicy string
)

var Module = fx.Module("accesscontrol", fx.Provide(New))

// New loads ACCESS_CONTROL.MODEL and ACCESS_CONTROL.POLICY when both files
// exist and falls back to the embedded role matrix otherwise.
func New(cfg *config.Config) (*casbin.Enforcer, error) {
	modelPath, policyPath := cfg.AccessControl.Model, cfg.AccessControl.Policy
	if fileExists(modelPath) && fileExists(policyPath) {
		zap.L().Info("loading access control from files", zap.String("model", modelPath), zap.String("policy", policyPath))
		return casbin.NewEnforcer(modelPath, policyPath)
	}
	return NewDefault()
}

func NewDefault() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	rules, err := csv.NewReader(strings.NewReader(defaultPolicy)).ReadAll()
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if len(rule) != 4 || strings.TrimSpace(rule[0]) != "p" {
			continue
		}
		if _, err := e.AddPolicy(strings.TrimSpace(rule[1]), strings.TrimSpace(rule[2]), strings.TrimSpace(rule[3])); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// Authorize rejects requests whose role header is not allowed for the route.
func Authorize(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToUpper(strings.TrimSpace(c.GetHeader(RoleHeader)))
		if role == "" {
			_ = c.Error(errutil.Unauthorized("missing role header", nil))
			c.Abort()
			return
		}

		ok, err := e.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			_ = c.Error(errutil.Internal("access control failed", err))
			c.Abort()
			return
		}
		if !ok {
			_ = c.Error(errutil.Forbidden("role is not allowed to perform this action", nil,
				errutil.WithDetails(errutil.Detail{Field: "role", Message: role})))
			c.Abort()
			return
		}

		c.Set("role", role)
		c.Next()
	}
}
