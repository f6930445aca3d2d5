package dynamo

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
	"github.com/tourney-api/internal/domain"
)

// classify maps AWS SDK errors onto domain sentinels so callers can decide
// retry-vs-fail without depending on SDK types:
//   - access/credential failures         → domain.ErrPermissionDenied (never retried)
//   - throttling/timeouts/network outages → domain.ErrStoreUnavailable (retryable)
//
// Everything else passes through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "MissingAuthenticationTokenException":
			return fmt.Errorf("dynamodb %s: %w", apiErr.ErrorCode(), domain.ErrPermissionDenied)
		case "ProvisionedThroughputExceededException", "ThrottlingException",
			"RequestLimitExceeded", "InternalServerError", "ServiceUnavailable",
			"TransactionConflictException", "RequestTimeout":
			return fmt.Errorf("dynamodb %s: %w", apiErr.ErrorCode(), domain.ErrStoreUnavailable)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("dynamodb deadline exceeded: %w", domain.ErrStoreUnavailable)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("dynamodb network error: %w", domain.ErrStoreUnavailable)
	}

	return err
}
