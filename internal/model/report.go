package model

import "time"

type QuestCounts struct {
	Individual int `json:"individual"`
	Family     int `json:"family"`
	Total      int `json:"total"`
}

func (c *QuestCounts) Add(t QuestType) {
	switch t {
	case QuestTypeIndividual:
		c.Individual++
	case QuestTypeFamily:
		c.Family++
	}
	c.Total++
}

// Aborted is set when a fatal step stopped the run before all work was attempted.
type GenerationResult struct {
	Success   bool        `json:"success"`
	Aborted   bool        `json:"aborted"`
	Generated QuestCounts `json:"generated"`
	Errors    []string    `json:"errors"`
}

type ExpirationResult struct {
	Success       bool        `json:"success"`
	Aborted       bool        `json:"aborted"`
	Expired       QuestCounts `json:"expired"`
	StreaksBroken int         `json:"streaksBroken"`
	Resumed       int         `json:"resumed"`
	Errors        []string    `json:"errors"`
}

type JobReport struct {
	Success    bool              `json:"success"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Expiration *ExpirationResult `json:"expiration,omitempty"`
	Generation *GenerationResult `json:"generation,omitempty"`
}

func (r *JobReport) Aborted() bool {
	return (r.Expiration != nil && r.Expiration.Aborted) || (r.Generation != nil && r.Generation.Aborted)
}

func (r *JobReport) ErrorCount() int {
	n := 0
	if r.Expiration != nil {
		n += len(r.Expiration.Errors)
	}
	if r.Generation != nil {
		n += len(r.Generation.Errors)
	}
	return n
}
