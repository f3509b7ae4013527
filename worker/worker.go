package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"sahaya-donation-api/queue"
	"sahaya-donation-api/services/email"
)

// Worker handles background delivery of donation receipts and contact
// form notifications.
type Worker struct {
	queue        *queue.Queue
	emailService *email.SMTPService
	contactInbox string
	shutdown     chan struct{}
	isRunning    bool
}

func NewWorker(q *queue.Queue, es *email.SMTPService, contactInbox string) *Worker {
	return &Worker{
		queue:        q,
		emailService: es,
		contactInbox: contactInbox,
		shutdown:     make(chan struct{}),
	}
}

// Start begins processing jobs
func (w *Worker) Start(concurrency int) {
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}
	go w.pumpDelayedJobs()

	log.Printf("Started %d worker goroutines", concurrency)
}

// Stop signals the worker to stop processing jobs
func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.isRunning = false
}

func (w *Worker) processJobs(workerID int) {
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			cancel()

			if err != nil {
				log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

			jobErr := w.processJob(job)
			if jobErr != nil {
				log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				failErr := w.queue.FailJob(ctx, job, jobErr)
				cancel()

				if failErr != nil {
					log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
				}

				time.Sleep(time.Second)
				continue
			}

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			completeErr := w.queue.CompleteJob(ctx, job)
			cancel()

			if completeErr != nil {
				log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
			}
		}
	}
}

// pumpDelayedJobs periodically promotes scheduled retries back into the
// main queue.
func (w *Worker) pumpDelayedJobs() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSendReceipt:
		return w.processSendReceipt(job)
	case queue.JobTypeContactNotification:
		return w.processContactNotification(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processSendReceipt(job *queue.Job) error {
	to := stringField(job, "email")
	if to == "" {
		return fmt.Errorf("invalid email in job data")
	}

	name := stringField(job, "name")
	amount := stringField(job, "amount")
	donationID := stringField(job, "donation_id")

	log.Printf("Sending donation receipt %s to %s", donationID, to)

	return w.emailService.SendDonationReceipt(to, name, amount, donationID)
}

func (w *Worker) processContactNotification(job *queue.Job) error {
	if w.contactInbox == "" {
		log.Printf("Warning: contact inbox not configured, dropping notification job %s", job.ID)
		return nil
	}

	name := stringField(job, "name")
	fromEmail := stringField(job, "email")
	subject := stringField(job, "subject")
	message := stringField(job, "message")

	return w.emailService.SendContactNotification(w.contactInbox, name, fromEmail, subject, message)
}

func stringField(job *queue.Job, key string) string {
	value, _ := job.Data[key].(string)
	return value
}
