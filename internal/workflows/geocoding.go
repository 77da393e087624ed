package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/localmart/storefront/internal/core/domain"
)

// Activity names, as registered from GeocodingActivities methods.
const (
	GeocodeAddressActivity    = "GeocodeAddress"
	SaveStoreLocationActivity = "SaveStoreLocation"
)

// StoreGeocodeInput is the input for the store geocoding workflow.
type StoreGeocodeInput struct {
	StoreID string
	Address string
}

// StoreGeocodeResult reports whether the store could be placed on the map.
type StoreGeocodeResult struct {
	StoreID          string
	Located          bool
	Location         *domain.Coordinate
	FormattedAddress string
}

// WorkflowID is the deterministic ID of the geocoding workflow of a store,
// so a store is never geocoded twice concurrently.
func WorkflowID(storeID string) string {
	return "geocode-store-" + storeID
}

// GeocodeStoreWorkflow geocodes the address of a store and saves the result.
// An address without a match completes with Located=false.
func GeocodeStoreWorkflow(ctx workflow.Context, input StoreGeocodeInput) (StoreGeocodeResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting store geocoding", "storeID", input.StoreID)

	result := StoreGeocodeResult{StoreID: input.StoreID}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeGeocodeNotFound, ErrTypeInvalidArgument},
		},
	})

	var geo domain.GeocodeResult
	err := workflow.ExecuteActivity(ctx, GeocodeAddressActivity, input.Address).Get(ctx, &geo)
	if err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == ErrTypeGeocodeNotFound {
			logger.Info("Address has no match, leaving store unlocated", "storeID", input.StoreID)
			return result, nil
		}
		return result, err
	}

	if err := workflow.ExecuteActivity(ctx, SaveStoreLocationActivity, input.StoreID, geo.Location).Get(ctx, nil); err != nil {
		return result, err
	}

	result.Located = true
	result.Location = &geo.Location
	result.FormattedAddress = geo.FormattedAddress
	logger.Info("Store located", "storeID", input.StoreID, "location", geo.Location.String())
	return result, nil
}
