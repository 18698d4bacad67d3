package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/cityagent/emptyleg/pkg/transfer"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/rs/zerolog/log"
)

type OperationType string

const (
	OperationInsert  OperationType = "Insert"
	OperationRefresh OperationType = "Refresh"
	OperationOutdate OperationType = "Outdate"
)

// MatchOperation is one write against the persisted match collection.
// Inserts carry the full proposal, refreshes and outdates only need the key.
type MatchOperation struct {
	Type      OperationType
	Key       transfer.MatchKey
	Match     *transfer.Match
	Timestamp time.Time
}

// BulkResult is the outcome of an unordered bulk write
type BulkResult struct {
	InsertedCount int64
	MatchedCount  int64
	ModifiedCount int64
	FailedCount   int
}

type MatchStore interface {
	FindActiveMatches(ctx context.Context, rideIDs []string) ([]*transfer.Match, error)

	// ApplyMatchOperations writes every operation in one unordered batch. Individual write
	// failures are reported in FailedCount and do not produce an error.
	ApplyMatchOperations(ctx context.Context, operations []MatchOperation) (BulkResult, error)
}

type EventPublisher interface {
	Publish(event *transfer.Event) error
}

type ReconcileResult struct {
	Inserted  int
	Refreshed int
	Outdated  int

	Bulk BulkResult
}

// Reconciler merges each cycle's proposals into the persisted match set
type Reconciler struct {
	Store     MatchStore
	Publisher EventPublisher
}

// Plan diffs proposals against the existing Active matches of the same rides.
// Existing keys are refreshed, new keys inserted once and vanished keys outdated.
func Plan(existing []*transfer.Match, proposals []*transfer.Match, now time.Time) []MatchOperation {
	now = now.UTC()

	existingIndex := map[transfer.MatchKey]*transfer.Match{}
	var existingOrder []transfer.MatchKey
	for _, match := range existing {
		key := match.Key()
		if _, exists := existingIndex[key]; exists {
			continue
		}
		existingIndex[key] = match
		existingOrder = append(existingOrder, key)
	}

	var operations []MatchOperation
	proposed := map[transfer.MatchKey]struct{}{}

	for _, proposal := range proposals {
		key := proposal.Key()
		if _, seen := proposed[key]; seen {
			continue
		}
		proposed[key] = struct{}{}

		if _, exists := existingIndex[key]; exists {
			operations = append(operations, MatchOperation{
				Type:      OperationRefresh,
				Key:       key,
				Timestamp: now,
			})
		} else {
			operations = append(operations, MatchOperation{
				Type:      OperationInsert,
				Key:       key,
				Match:     proposal,
				Timestamp: now,
			})
		}
	}

	for _, key := range existingOrder {
		if _, stillProposed := proposed[key]; stillProposed {
			continue
		}

		operations = append(operations, MatchOperation{
			Type:      OperationOutdate,
			Key:       key,
			Match:     existingIndex[key],
			Timestamp: now,
		})
	}

	return operations
}

// Reconcile applies the proposals for every ride in the proposals or in scope.
// Rides in scope without proposals have all their Active matches outdated.
func (r *Reconciler) Reconcile(ctx context.Context, proposals []*transfer.Match, scope []string, now time.Time) (ReconcileResult, error) {
	var result ReconcileResult

	rideIDs := make([]string, 0, len(proposals)+len(scope))
	for _, proposal := range proposals {
		rideIDs = append(rideIDs, proposal.RideID)
	}
	rideIDs = util.UniqueStrings(append(rideIDs, scope...))

	if len(rideIDs) == 0 {
		return result, nil
	}

	existing, err := r.Store.FindActiveMatches(ctx, rideIDs)
	if err != nil {
		return result, fmt.Errorf("fetching active matches: %w", err)
	}

	operations := Plan(existing, proposals, now)
	if len(operations) == 0 {
		return result, nil
	}

	for _, operation := range operations {
		switch operation.Type {
		case OperationInsert:
			result.Inserted++
		case OperationRefresh:
			result.Refreshed++
		case OperationOutdate:
			result.Outdated++
		}
	}

	result.Bulk, err = r.Store.ApplyMatchOperations(ctx, operations)
	if err != nil {
		return result, fmt.Errorf("applying match operations: %w", err)
	}

	logEvent := log.Info()
	if result.Bulk.FailedCount > 0 {
		logEvent = log.Warn()
	}
	logEvent.
		Int("rides", len(rideIDs)).
		Int("inserts", result.Inserted).
		Int("refreshes", result.Refreshed).
		Int("outdates", result.Outdated).
		Int64("inserted", result.Bulk.InsertedCount).
		Int64("modified", result.Bulk.ModifiedCount).
		Int("failed", result.Bulk.FailedCount).
		Msg("Reconciled matches")

	r.publish(operations)

	return result, nil
}

func (r *Reconciler) publish(operations []MatchOperation) {
	if r.Publisher == nil {
		return
	}

	for _, operation := range operations {
		var event *transfer.Event

		switch operation.Type {
		case OperationInsert:
			event = &transfer.Event{
				Type:      transfer.EventTypeMatchCreated,
				Timestamp: operation.Timestamp,
				Body:      operation.Match,
			}
		case OperationOutdate:
			event = &transfer.Event{
				Type:      transfer.EventTypeMatchOutdated,
				Timestamp: operation.Timestamp,
				Body: transfer.MatchOutdatedEventBody{
					RideID:     operation.Key.RideID,
					MatchedID:  operation.Key.MatchedID,
					Source:     operation.Key.Source,
					OutdatedAt: operation.Timestamp,
				},
			}
		default:
			continue
		}

		if err := r.Publisher.Publish(event); err != nil {
			log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to publish match event")
		}
	}
}
