package aws

import (
	"context"
	"encoding/json"
	"strings"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
)

// TranscribeRunner is the job runner backed by the transcription lambda
// (dispatch) and the Transcribe job listing (status). The listing is
// rate-limited and time-bounded, so callers treat it as best-effort and
// fall back to the durable result document.
type TranscribeRunner struct {
	Lambda     *lambda.Client
	Transcribe *transcribe.Client
	Function   string

	// Bucket the lambda writes result documents into, used to rebuild
	// output locations from job names
	OutputBucket string
}

func NewTranscribeRunner(cfg aws.Config, function, outputBucket string) *TranscribeRunner {
	return &TranscribeRunner{
		Lambda:       lambda.NewFromConfig(cfg),
		Transcribe:   transcribe.NewFromConfig(cfg),
		Function:     function,
		OutputBucket: outputBucket,
	}
}

// The lambda expects its payload wrapped in a body envelope and answers
// with an API Gateway style response whose body is a JSON string.
type lambdaPayload struct {
	Body service.JobLocator `json:"body"`
}

type lambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type lambdaResponseBody struct {
	JobName string `json:"job_name"`
}

// Dispatch invokes the transcription lambda synchronously and waits for
// its acknowledgement that a job has started, not for the job itself.
func (r *TranscribeRunner) Dispatch(ctx context.Context, loc service.JobLocator) (string, error) {
	payload, err := json.Marshal(lambdaPayload{Body: loc})
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "failed to marshal job payload", err)
	}

	out, err := r.Lambda.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(r.Function),
		Payload:      payload,
	})
	if err != nil {
		return "", apperr.FromAPI(err, "failed to invoke transcription job")
	}

	var resp lambdaResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return "", apperr.Wrap(apperr.KindService, "job runner returned an unreadable response", err)
	}

	if resp.StatusCode != 200 {
		return "", apperr.Newf(apperr.KindService, "job runner refused the job (status %d)", resp.StatusCode)
	}

	var body lambdaResponseBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return "", apperr.Wrap(apperr.KindService, "job runner returned an unreadable body", err)
	}

	return body.JobName, nil
}

// ListRecentJobs returns a bounded page of recent transcription jobs.
// Job names follow the lambda's {user}__{fileID} convention (S3 keys
// contain slashes, job names can't), which is how output locations are
// rebuilt here for suffix matching.
func (r *TranscribeRunner) ListRecentJobs(ctx context.Context) ([]service.JobStatus, error) {
	out, err := r.Transcribe.ListTranscriptionJobs(ctx, &transcribe.ListTranscriptionJobsInput{
		MaxResults: aws.Int32(100),
	})
	if err != nil {
		return nil, apperr.FromAPI(err, "failed to list transcription jobs")
	}

	jobs := make([]service.JobStatus, 0, len(out.TranscriptionJobSummaries))
	for _, s := range out.TranscriptionJobSummaries {
		name := aws.ToString(s.TranscriptionJobName)
		jobs = append(jobs, service.JobStatus{
			Name:           name,
			State:          string(s.TranscriptionJobStatus),
			OutputLocation: r.outputLocation(name),
		})
	}
	return jobs, nil
}

func (r *TranscribeRunner) outputLocation(jobName string) string {
	user, fileID, ok := strings.Cut(jobName, "__")
	if !ok {
		return ""
	}
	return "s3://" + r.OutputBucket + "/" + user + "/" + fileID + ".json"
}
