package store

// SQL query constants organized by entity.
// PostgresStore methods reference these constants.

// Run queries.
const (
	queryCreateRun = `
		INSERT INTO runs (id, source, status, config)
		VALUES (@id, @source, @status, @config)
		RETURNING started_at`

	queryCompleteRun = `
		UPDATE runs SET
			completed_at = now(),
			status       = @status,
			error_text   = @error_text,
			counts       = @counts,
			summary      = @summary,
			thresholds   = @thresholds
		WHERE id = @id`

	queryGetRun = `
		SELECT id, source, status, started_at, completed_at,
			COALESCE(error_text, ''), COALESCE(config, 'null'),
			counts, COALESCE(summary, 'null'), COALESCE(thresholds, 'null')
		FROM runs
		WHERE id = $1`

	queryMarkStaleRunsFailed = `
		UPDATE runs SET
			status       = 'failed',
			error_text   = 'interrupted',
			completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	queryDeleteRunsBefore = `
		DELETE FROM runs WHERE started_at < $1`
)

// Scheduler lock queries.
const (
	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, lock_holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE
			SET locked_at   = now(),
				lock_holder = EXCLUDED.lock_holder,
				expires_at  = EXCLUDED.expires_at
			WHERE scheduler_locks.expires_at < now()
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND lock_holder = $2`
)

// runListingColumns is the column order used by CopyFrom.
var runListingColumns = []string{
	"run_id", "sequence_index", "name", "price", "grade", "raw_condition",
	"posted_date", "url", "outlier_flag", "outcome", "tier_index", "tier_label",
	"error_reason", "source_index",
}
