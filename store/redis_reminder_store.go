package store

import (
	"fmt"

	"github.com/ulugbekdev/tolov-bot/types"
)

// RedisReminderStore persists pending reminder jobs so that one-shot
// timers can be re-armed after a restart. Jobs carry no TTL; they are
// deleted explicitly when fired, replaced or canceled.
type RedisReminderStore struct {
	client *RedisClient
}

func NewRedisReminderStore(redisClient *RedisClient) *RedisReminderStore {
	return &RedisReminderStore{client: redisClient}
}

func (s *RedisReminderStore) SaveJob(job types.ReminderJob) error {
	key := s.client.generateKey("reminder", fmt.Sprintf("%d", job.StudentID))
	return s.client.Set(key, job, 0)
}

func (s *RedisReminderStore) DeleteJob(studentID int64) error {
	key := s.client.generateKey("reminder", fmt.Sprintf("%d", studentID))
	return s.client.Del(key)
}

func (s *RedisReminderStore) ListJobs() ([]types.ReminderJob, error) {
	pattern := s.client.generateKey("reminder", "*")
	keys, err := s.client.Keys(pattern)
	if err != nil {
		return nil, err
	}

	jobs := make([]types.ReminderJob, 0, len(keys))
	for _, key := range keys {
		var job types.ReminderJob
		if err := s.client.Get(key, &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
