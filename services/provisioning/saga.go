package provisioning

import (
	"context"

	"farmavida-master/pkg/logger"

	"go.uber.org/zap"
)

// State is the provisioning progress of one request.
type State string

const (
	StateRequested            State = "requested"
	StateTenantCreated        State = "tenant_created"
	StateIdentityCreated      State = "identity_created"
	StateProfileCreated       State = "profile_created"
	StateActive               State = "active"
	StateRolledBack           State = "rolled_back"
	StatePartiallyProvisioned State = "partially_provisioned"
)

// Policy decides what a failed step does to the rest of the saga.
type Policy int

const (
	// PolicyAbort stops without undoing anything. Used before any write.
	PolicyAbort Policy = iota
	// PolicyCompensate undoes completed steps in reverse order, then stops.
	PolicyCompensate
	// PolicyContinue records a warning and runs the next step.
	PolicyContinue
)

type step struct {
	name       string
	reaches    State
	policy     Policy
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

type saga struct {
	steps    []step
	state    State
	warnings []string
	degraded bool
}

func newSaga(steps ...step) *saga {
	return &saga{steps: steps, state: StateRequested}
}

// execute runs steps in order. The returned error is the failing step's own
// error; compensation failures are logged and recorded as warnings.
func (s *saga) execute(ctx context.Context) error {
	zapLog := logger.FromContext(ctx)
	var completed []step

	for _, st := range s.steps {
		err := st.run(ctx)
		if err == nil {
			s.state = st.reaches
			completed = append(completed, st)
			continue
		}

		switch st.policy {
		case PolicyContinue:
			zapLog.Warn("provisioning step failed, continuing",
				zap.String("step", st.name),
				zap.String("state", string(s.state)),
				zap.Error(err),
			)
			s.warnings = append(s.warnings, st.name+": "+err.Error())
			s.degraded = true

		case PolicyCompensate:
			zapLog.Error("provisioning step failed, compensating",
				zap.String("step", st.name),
				zap.Error(err),
			)
			s.rollback(ctx, completed)
			s.state = StateRolledBack
			return err

		default:
			zapLog.Error("provisioning step failed",
				zap.String("step", st.name),
				zap.Error(err),
			)
			return err
		}
	}

	if s.degraded {
		s.state = StatePartiallyProvisioned
	}
	return nil
}

func (s *saga) rollback(ctx context.Context, completed []step) {
	for i := len(completed) - 1; i >= 0; i-- {
		st := completed[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			logger.FromContext(ctx).Error("compensation failed",
				zap.String("step", st.name),
				zap.Error(err),
			)
			s.warnings = append(s.warnings, "compensate "+st.name+": "+err.Error())
		}
	}
}
