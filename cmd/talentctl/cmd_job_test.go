package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/talent-ranker/internal/models"
	"alfredoptarigan/talent-ranker/internal/services"
)

func TestParseJobFile(t *testing.T) {
	job, err := parseJobFile([]byte(`
id: backend-2026
title: Backend Engineer
description: Owns the billing services.
criteria:
  - id: tech
    name: Technical skills
    max_score: 10
    weight: 70
  - id: comm
    name: Communication
    max_score: 5
    weight: 30
`), "org-1")
	require.NoError(t, err)

	assert.Equal(t, "backend-2026", job.ID)
	assert.Equal(t, "org-1", job.OrgID)
	assert.Equal(t, models.CriteriaList{
		{ID: "tech", Name: "Technical skills", MaxScore: 10, Weight: 70},
		{ID: "comm", Name: "Communication", MaxScore: 5, Weight: 30},
	}, job.Criteria)
}

func TestParseJobFileErrors(t *testing.T) {
	_, err := parseJobFile([]byte("title: Backend Engineer\ncriteria: []\n"), "org-1")
	assert.ErrorContains(t, err, "id and title")

	_, err = parseJobFile([]byte("id: j\ntitle: T\ncriteria: []\n"), "org-1")
	assert.ErrorIs(t, err, services.ErrInsufficientData)

	_, err = parseJobFile([]byte("id: j\ntitle: T\ncriteria:\n  - id: tech\n    max_score: 0\n"), "org-1")
	assert.ErrorIs(t, err, services.ErrInvalidCriterion)

	_, err = parseJobFile([]byte("id: [j\n"), "org-1")
	assert.ErrorContains(t, err, "parse job file")
}
