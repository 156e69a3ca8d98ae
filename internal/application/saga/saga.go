// Package saga ejecuta flujos de varios pasos sin transacción de base de datos:
// cada paso tiene una acción y, opcionalmente, su deshacer. Si un paso falla se deshacen
// los pasos ya completados en orden inverso.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// Step un paso del flujo. Undo nil significa que no hay nada que deshacer.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// StepError fallo de un paso. Unwrap devuelve el error original del paso, de modo que
// errors.Is / errors.As siguen viendo la causa real; los fallos de compensación van aparte.
type StepError struct {
	Workflow        string
	Step            string
	Err             error
	CompensationErr error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: paso %s: %v", e.Workflow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Saga secuencia de pasos de un flujo concreto. No es reutilizable entre ejecuciones.
type Saga struct {
	name    string
	log     *logger.Logger
	metrics ports.WorkflowMetrics
	steps   []Step
}

// New construye una saga vacía. metrics puede ser nil.
func New(name string, log *logger.Logger, metrics ports.WorkflowMetrics) *Saga {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Saga{name: name, log: log, metrics: metrics}
}

// Add agrega un paso al final.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run ejecuta los pasos en orden. Ante el primer error deshace los pasos completados
// (del último al primero) con un contexto desligado de la cancelación del request,
// y devuelve un *StepError. Los errores de compensación se registran y se agregan en
// StepError.CompensationErr, nunca reemplazan al error original.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.log.Warn().Err(err).
				Str("workflow", s.name).
				Str("step", step.Name).
				Int("completed", len(completed)).
				Msg("paso fallido, compensando")
			cerr := s.compensate(context.WithoutCancel(ctx), completed)
			s.metrics.WorkflowFinished(s.name, err)
			return &StepError{Workflow: s.name, Step: step.Name, Err: err, CompensationErr: cerr}
		}
		completed = append(completed, step)
	}
	s.metrics.WorkflowFinished(s.name, nil)
	return nil
}

func (s *Saga) compensate(ctx context.Context, completed []Step) error {
	var errs error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		err := step.Undo(ctx)
		s.metrics.CompensationRan(s.name, step.Name, err)
		if err != nil {
			s.log.Error().Err(err).
				Str("workflow", s.name).
				Str("step", step.Name).
				Msg("compensación fallida; quedan datos huérfanos para remediación manual")
			errs = multierr.Append(errs, fmt.Errorf("deshacer %s: %w", step.Name, err))
			continue
		}
		s.log.Debug().Str("workflow", s.name).Str("step", step.Name).Msg("paso compensado")
	}
	return errs
}
