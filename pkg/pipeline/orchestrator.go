package pipeline

import (
	"context"
	"os"

	"github.com/mrcpdf/mrcpdf/pkg/errtyp"
	"github.com/mrcpdf/mrcpdf/pkg/log"
)

// Result is the outcome of running one job.
type Result struct {
	Input, Output string
	Pages         int
	Err           error
}

// RunAll iterates jobs sequentially, never aborting the batch on a
// single job's failure, and returns one Result per job in input order.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		out, pages, err := r.Run(ctx, job)
		if err != nil {
			results[i] = Result{Input: job.Input, Output: job.Output, Err: err}
			log.CLI.Printf("ERROR %s -> %s: %s\n", job.Input, job.Output, err.Error())
			continue
		}

		if err := os.WriteFile(job.Output, out, 0o644); err != nil {
			wrapped := errtyp.Wrap(errtyp.Io, err, "writing output PDF "+job.Output)
			results[i] = Result{Input: job.Input, Output: job.Output, Err: wrapped}
			log.CLI.Printf("ERROR %s -> %s: %s\n", job.Input, job.Output, wrapped.Error())
			continue
		}

		results[i] = Result{Input: job.Input, Output: job.Output, Pages: pages}
		log.CLI.Printf("OK %s -> %s (%d pages)\n", job.Input, job.Output, pages)
	}
	return results
}
