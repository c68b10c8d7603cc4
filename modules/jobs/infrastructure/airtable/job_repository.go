package airtable

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/motu-crew/crewboard/modules/jobs/domain/aggregates/job"
)

// JobRepository implements job.Repository on top of an Airtable table.
type JobRepository struct {
	client *Client
}

func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

func (r *JobRepository) List(ctx context.Context, params job.FindParams) ([]job.Job, error) {
	out := make([]job.Job, 0)
	offset := ""
	for {
		q := url.Values{}
		if formula := filterFormula(params); formula != "" {
			q.Set("filterByFormula", formula)
		}
		q.Set("sort[0][field]", "date")
		q.Set("sort[0][direction]", "asc")
		q.Set("sort[1][field]", "start_time")
		q.Set("sort[1][direction]", "asc")
		if offset != "" {
			q.Set("offset", offset)
		}

		var page listResponse
		if err := r.client.doJSON(ctx, http.MethodGet, "", q, nil, &page); err != nil {
			return nil, errors.Wrap(err, "list jobs")
		}
		for _, rec := range page.Records {
			out = append(out, rec.toJob())
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (job.Job, error) {
	var rec record
	if err := r.client.doJSON(ctx, http.MethodGet, id, nil, nil, &rec); err != nil {
		return job.Job{}, mapNotFound(err, "get job")
	}
	return rec.toJob(), nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, patch job.StatusPatch) (job.Job, error) {
	req := patchRequest{Fields: statusFields(patch), Typecast: r.client.typecast}
	var rec record
	if err := r.client.doJSON(ctx, http.MethodPatch, id, nil, req, &rec); err != nil {
		return job.Job{}, mapNotFound(err, "update job status")
	}
	return rec.toJob(), nil
}

func (r *JobRepository) CreateBatch(ctx context.Context, records []job.Fields, mergeOn []string) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if len(records) > MaxRecordsPerRequest {
		return 0, errors.Errorf("at most %d records per request, got %d", MaxRecordsPerRequest, len(records))
	}
	writes := make([]writeRecord, len(records))
	for i, f := range records {
		writes[i] = writeRecord{Fields: f}
	}

	var (
		resp writeResponse
		err  error
	)
	if len(mergeOn) > 0 {
		req := upsertRequest{
			PerformUpsert: performUpsert{FieldsToMergeOn: mergeOn},
			Records:       writes,
			Typecast:      r.client.typecast,
		}
		err = r.client.doJSON(ctx, http.MethodPatch, "", nil, req, &resp)
	} else {
		req := createRequest{Records: writes, Typecast: r.client.typecast}
		err = r.client.doJSON(ctx, http.MethodPost, "", nil, req, &resp)
	}
	if err != nil {
		return 0, errors.Wrap(err, "create jobs batch")
	}
	return len(resp.Records), nil
}

func mapNotFound(err error, op string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return job.ErrNotFound
	}
	return errors.Wrap(err, op)
}
