package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"

	"konnectia/internal/common"
	"konnectia/internal/utils"
)

const uniqueViolation = "23505"

// trackQuery starts a db_query_duration_seconds timer. The returned func
// records the outcome; not-found and conflict results count as successes.
//
//	defer trackQuery("findByID", "user")(&err)
func trackQuery(queryType, repository string) func(*error) {
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(v)
	}))

	return func(errp *error) {
		if err := *errp; err != nil && !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrConflict) {
			status = "error"
			utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		}
		timer.ObserveDuration()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
