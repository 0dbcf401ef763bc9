// Package closecheck evaluates per-entity close checklists and simulates
// multi-entity close dry runs ahead of a period lock.
package closecheck

import (
	"fmt"
	"sort"
	"time"
)

const (
	minDryRunEntityCount = 2
	maxDryRunEntityCount = 3
)

// DependencyStatus is the lifecycle state of one close checklist dependency.
type DependencyStatus string

const (
	DependencyPending    DependencyStatus = "pending"
	DependencyInProgress DependencyStatus = "in_progress"
	DependencySatisfied  DependencyStatus = "satisfied"
	DependencyBlocked    DependencyStatus = "blocked"
)

// Dependency is one checklist line item (e.g. "bank statement reconciled").
type Dependency struct {
	DependencyID      string
	Description       string
	RequiredForClose  bool
	Status            DependencyStatus
}

// ChecklistStatus is the overall status of an entity's close checklist.
type ChecklistStatus string

const (
	ChecklistInProgress   ChecklistStatus = "in_progress"
	ChecklistBlocked      ChecklistStatus = "blocked"
	ChecklistReadyToClose ChecklistStatus = "ready_to_close"
	ChecklistClosed       ChecklistStatus = "closed"
)

// EntityChecklist is one legal entity's close checklist for a period.
type EntityChecklist struct {
	ChecklistID   string
	LegalEntityID string
	PeriodID      string
	Status        ChecklistStatus
	Dependencies  []Dependency
	UpdatedAt     time.Time
}

// Progression is the computed readiness of a checklist: whether it can
// progress (no unresolved blockers) and its derived overall status.
type Progression struct {
	ChecklistID        string
	LegalEntityID      string
	PeriodID           string
	Status             ChecklistStatus
	CanProgress        bool
	UnresolvedBlockers []string
}

// ActorContext identifies who is evaluating or transitioning a checklist.
// Evaluation is authorization-neutral: the actor never changes the result.
type ActorContext struct {
	ActorID   string
	ActorRole string
}

// MultiEntityDryRunInput simulates a close across 2-3 legal entities at once.
type MultiEntityDryRunInput struct {
	RunID        string
	RunStartedAt time.Time
	Checklists   []EntityChecklist
}

// EntityDryRunResult is one entity's outcome within a multi-entity dry run.
type EntityDryRunResult struct {
	ChecklistID        string
	LegalEntityID      string
	Status             ChecklistStatus
	CanProgress        bool
	CloseReady         bool
	UnresolvedBlockers []string
}

// MultiEntityDryRunResult is the full outcome of a multi-entity dry run.
type MultiEntityDryRunResult struct {
	RunID          string
	RunStartedAt   time.Time
	EntityResults  []EntityDryRunResult
	Passed         bool
	FailedEntities []string
}

// Error is the structured failure shape for checklist operations.
type Error struct {
	Kind          string // "dependency_not_found" | "invalid_dependency_transition" | "unsupported_entity_count"
	DependencyID  string
	From          DependencyStatus
	To            DependencyStatus
	EntityCount   int
}

func (e *Error) Error() string {
	switch e.Kind {
	case "dependency_not_found":
		return fmt.Sprintf("dependency `%s` not found in checklist", e.DependencyID)
	case "invalid_dependency_transition":
		return fmt.Sprintf("invalid dependency transition from `%s` to `%s`", e.From, e.To)
	case "unsupported_entity_count":
		return fmt.Sprintf("multi-entity close dry run requires 2-3 entities, got %d", e.EntityCount)
	default:
		return "close checklist error"
	}
}

// EvaluateEntityChecklist derives a checklist's progression: whether any
// dependency is Blocked (which prevents progress), and the overall status.
func EvaluateEntityChecklist(checklist EntityChecklist) Progression {
	unresolvedBlockers := make([]string, 0)
	for _, dep := range checklist.Dependencies {
		if dep.Status == DependencyBlocked {
			unresolvedBlockers = append(unresolvedBlockers, dep.DependencyID)
		}
	}
	canProgress := len(unresolvedBlockers) == 0
	status := deriveChecklistStatus(checklist, canProgress)

	return Progression{
		ChecklistID:        checklist.ChecklistID,
		LegalEntityID:      checklist.LegalEntityID,
		PeriodID:           checklist.PeriodID,
		Status:             status,
		CanProgress:        canProgress,
		UnresolvedBlockers: unresolvedBlockers,
	}
}

// EvaluateEntityChecklistForActor evaluates a checklist on behalf of a
// specific actor. Evaluation never depends on the actor: identical input
// produces an identical result regardless of who asks.
func EvaluateEntityChecklistForActor(checklist EntityChecklist, _ ActorContext) Progression {
	return EvaluateEntityChecklist(checklist)
}

// TransitionDependencyStatus moves one dependency to a new status, subject
// to the legal-transition matrix, and re-derives the checklist's overall
// status from the result.
func TransitionDependencyStatus(checklist EntityChecklist, dependencyID string, next DependencyStatus, updatedAt time.Time) (EntityChecklist, error) {
	updated := checklist
	updated.Dependencies = make([]Dependency, len(checklist.Dependencies))
	copy(updated.Dependencies, checklist.Dependencies)

	idx := -1
	for i, dep := range updated.Dependencies {
		if dep.DependencyID == dependencyID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return EntityChecklist{}, &Error{Kind: "dependency_not_found", DependencyID: dependencyID}
	}

	current := updated.Dependencies[idx].Status
	if !isValidDependencyTransition(current, next) {
		return EntityChecklist{}, &Error{Kind: "invalid_dependency_transition", From: current, To: next}
	}

	updated.Dependencies[idx].Status = next
	updated.UpdatedAt = updatedAt
	progression := EvaluateEntityChecklist(updated)
	updated.Status = progression.Status

	return updated, nil
}

// SimulateMultiEntityCloseDryRun evaluates 2-3 entity checklists together
// and reports whether all are ready to close.
func SimulateMultiEntityCloseDryRun(input MultiEntityDryRunInput) (MultiEntityDryRunResult, error) {
	return simulateMultiEntityCloseDryRunInternal(input, nil)
}

// SimulateMultiEntityCloseDryRunForActor is the actor-scoped variant;
// evaluation remains authorization-neutral.
func SimulateMultiEntityCloseDryRunForActor(input MultiEntityDryRunInput, actor ActorContext) (MultiEntityDryRunResult, error) {
	return simulateMultiEntityCloseDryRunInternal(input, &actor)
}

func simulateMultiEntityCloseDryRunInternal(input MultiEntityDryRunInput, actor *ActorContext) (MultiEntityDryRunResult, error) {
	entityCount := len(input.Checklists)
	if entityCount < minDryRunEntityCount || entityCount > maxDryRunEntityCount {
		return MultiEntityDryRunResult{}, &Error{Kind: "unsupported_entity_count", EntityCount: entityCount}
	}

	sorted := make([]EntityChecklist, len(input.Checklists))
	copy(sorted, input.Checklists)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].LegalEntityID != sorted[j].LegalEntityID {
			return sorted[i].LegalEntityID < sorted[j].LegalEntityID
		}
		return sorted[i].ChecklistID < sorted[j].ChecklistID
	})

	entityResults := make([]EntityDryRunResult, 0, len(sorted))
	failedEntities := make([]string, 0)
	for _, checklist := range sorted {
		var progression Progression
		if actor != nil {
			progression = EvaluateEntityChecklistForActor(checklist, *actor)
		} else {
			progression = EvaluateEntityChecklist(checklist)
		}
		closeReady := progression.Status == ChecklistReadyToClose || progression.Status == ChecklistClosed
		if !progression.CanProgress || !closeReady {
			failedEntities = append(failedEntities, checklist.LegalEntityID)
		}

		entityResults = append(entityResults, EntityDryRunResult{
			ChecklistID:        checklist.ChecklistID,
			LegalEntityID:      checklist.LegalEntityID,
			Status:             progression.Status,
			CanProgress:        progression.CanProgress,
			CloseReady:         closeReady,
			UnresolvedBlockers: progression.UnresolvedBlockers,
		})
	}

	return MultiEntityDryRunResult{
		RunID:          input.RunID,
		RunStartedAt:   input.RunStartedAt,
		EntityResults:  entityResults,
		Passed:         len(failedEntities) == 0,
		FailedEntities: failedEntities,
	}, nil
}

func deriveChecklistStatus(checklist EntityChecklist, canProgress bool) ChecklistStatus {
	if !canProgress {
		return ChecklistBlocked
	}
	if checklist.Status == ChecklistClosed {
		return ChecklistClosed
	}

	readyToClose := true
	for _, dep := range checklist.Dependencies {
		if dep.RequiredForClose && dep.Status != DependencySatisfied {
			readyToClose = false
			break
		}
	}
	if readyToClose {
		return ChecklistReadyToClose
	}
	return ChecklistInProgress
}

func isValidDependencyTransition(from, to DependencyStatus) bool {
	if from == to {
		return true
	}
	switch {
	case from == DependencyPending && (to == DependencyInProgress || to == DependencySatisfied || to == DependencyBlocked):
		return true
	case from == DependencyInProgress && (to == DependencySatisfied || to == DependencyBlocked):
		return true
	case from == DependencyBlocked && (to == DependencyInProgress || to == DependencySatisfied):
		return true
	default:
		return false
	}
}
