package service

import (
	"quizforge/internal/domain"
)

// workerCountTable maps the supported request sizes to their fan-out
// width. Sizes outside the table fall back to min(ceil(n/5), maxWorkers).
var workerCountTable = map[int]int{
	10: 3,
	20: 5,
	30: 6,
}

const (
	maxWorkers           = 6
	fallbackQuestionsPer = 5
)

// Distribution describes how a quiz's work is split across workers.
type Distribution struct {
	WorkerCount        int
	ChunksPerWorker    int
	QuestionsPerWorker int
}

// CalculateDistribution computes the fan-out for a question count.
//
// QuestionsPerWorker applies to every worker except the last; the last
// worker receives the exact remainder so the per-worker counts always
// sum to questionCount, even when it does not divide evenly.
func CalculateDistribution(questionCount int) Distribution {
	workerCount, ok := workerCountTable[questionCount]
	if !ok {
		workerCount = ceilDiv(questionCount, fallbackQuestionsPer)
		if workerCount > maxWorkers {
			workerCount = maxWorkers
		}
		if workerCount < 1 {
			workerCount = 1
		}
	}

	return Distribution{
		WorkerCount:        workerCount,
		ChunksPerWorker:    ceilDiv(questionCount, workerCount),
		QuestionsPerWorker: ceilDiv(questionCount, workerCount),
	}
}

// CreateTasks slices the retrieved chunks into contiguous,
// non-overlapping groups and assigns each group to one worker task. The
// slices partition the chunk array: no chunk is skipped or assigned
// twice. Instructions are caller-provided free text forwarded to every
// worker's prompt.
func CreateTasks(chunks []domain.RetrievedChunk, quiz *domain.Quiz, dist Distribution, instructions string) []*domain.WorkerTask {
	chunksPerWorker := ceilDiv(len(chunks), dist.WorkerCount)

	tasks := make([]*domain.WorkerTask, 0, dist.WorkerCount)
	remaining := quiz.QuestionCount

	for i := 0; i < dist.WorkerCount; i++ {
		start := i * chunksPerWorker
		if start > len(chunks) {
			start = len(chunks)
		}
		end := start + chunksPerWorker
		if end > len(chunks) {
			end = len(chunks)
		}

		questions := dist.QuestionsPerWorker
		if i == dist.WorkerCount-1 {
			questions = remaining
		}
		remaining -= questions

		taskChunks := make([]domain.TaskChunk, 0, end-start)
		for _, c := range chunks[start:end] {
			taskChunks = append(taskChunks, domain.TaskChunk{ID: c.ID, Text: c.Text})
		}

		tasks = append(tasks, &domain.WorkerTask{
			QuizID:        quiz.ID,
			Chunks:        taskChunks,
			Difficulty:    quiz.Difficulty,
			Topic:         quiz.Topic,
			Instructions:  instructions,
			QuestionCount: questions,
			WorkerIndex:   i,
		})
	}

	return tasks
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
