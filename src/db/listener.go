package db

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleChannel is notified by a trigger on recurring_rules with the owning
// user id as payload.
const RuleChannel = "recurring_rules_changed"

// ListenRuleChanges calls onChange with the user id of every rule change that
// can affect materialization until ctx is done. A lost connection is
// re-established after retryDelay.
func ListenRuleChanges(ctx context.Context, pool *pgxpool.Pool, retryDelay time.Duration, onChange func(userID int64)) {
	for {
		err := listen(ctx, pool, onChange)
		if ctx.Err() != nil {
			return
		}
		log.Printf("ERROR: Recurring rule listener stopped, retrying in %s: %v", retryDelay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func listen(ctx context.Context, pool *pgxpool.Pool, onChange func(userID int64)) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{RuleChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Printf("INFO: Listening for changes on %s", RuleChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		userID, err := strconv.ParseInt(n.Payload, 10, 64)
		if err != nil {
			log.Printf("ERROR: Ignoring %s notification with payload %q", n.Channel, n.Payload)
			continue
		}
		onChange(userID)
	}
}
