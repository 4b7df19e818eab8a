package reconcile

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

// Source yields aggregated vaccine rows from the analytics warehouse.
type Source interface {
	Aggregates(ctx context.Context) ([]clinic.VaccineRecord, error)
}

// BigQuerySource aggregates the raw vaccine data table per (no_ktp,
// vaccine_type) pair, counting occurrences of each type.
type BigQuerySource struct {
	client *bigquery.Client
	table  string
}

func NewBigQuerySource(ctx context.Context, projectID, table string) (*BigQuerySource, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &BigQuerySource{client: client, table: table}, nil
}

func (s *BigQuerySource) Close() error {
	return s.client.Close()
}

type vaccineRow struct {
	NoKTP        string     `bigquery:"no_ktp"`
	FullName     string     `bigquery:"full_name"`
	Birthdate    civil.Date `bigquery:"birthdate"`
	VaccineType  string     `bigquery:"vaccine_type"`
	VaccineCount int64      `bigquery:"vaccine_count"`
}

func (s *BigQuerySource) Aggregates(ctx context.Context) ([]clinic.VaccineRecord, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT no_ktp,
		       ANY_VALUE(full_name) AS full_name,
		       ANY_VALUE(birthdate) AS birthdate,
		       vaccine_type,
		       COUNT(vaccine_type) AS vaccine_count
		FROM `+"`%s`"+`
		GROUP BY no_ktp, vaccine_type
	`, s.table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("run warehouse aggregation: %w", err)
	}

	var records []clinic.VaccineRecord
	for {
		var row vaccineRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read warehouse row: %w", err)
		}

		records = append(records, clinic.VaccineRecord{
			NoKTP:        row.NoKTP,
			Name:         row.FullName,
			Birthdate:    row.Birthdate.In(time.UTC),
			VaccineType:  row.VaccineType,
			VaccineCount: int(row.VaccineCount),
		})
	}

	return records, nil
}
