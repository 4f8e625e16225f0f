package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"crelo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePledge_CopiesPledgeType(t *testing.T) {
	e := newTestEnv(t)
	project := e.createProject(t, "Choir", month).Project

	p, err := e.pledges.CreatePledge(context.Background(), CreatePledgeInput{
		SupporterID: e.backer.ID,
		ProjectID:   project.ID,
		Amount:      40,
		Comment:     "  go team  ",
		Anonymous:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, e.pledgeType.ID, p.PledgeTypeID)
	assert.Equal(t, "go team", p.Comment)
	assert.True(t, p.Anonymous)
	require.NotNil(t, p.Supporter)
	assert.Equal(t, "backer", p.Supporter.Username)
}

func TestCreatePledge_Rejects(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "Choir", 24*time.Hour).Project

	_, err := e.pledges.CreatePledge(ctx, CreatePledgeInput{SupporterID: e.backer.ID, ProjectID: project.ID, Amount: 0})
	assertCode(t, err, models.CodeValidation)

	_, err = e.pledges.CreatePledge(ctx, CreatePledgeInput{
		SupporterID: e.backer.ID, ProjectID: project.ID, Amount: 5, Comment: strings.Repeat("x", 201),
	})
	assertCode(t, err, models.CodeValidation)

	_, err = e.pledges.CreatePledge(ctx, CreatePledgeInput{SupporterID: e.backer.ID, ProjectID: 404, Amount: 5})
	assertCode(t, err, models.CodeNotFound)

	e.now = e.now.Add(48 * time.Hour)
	_, err = e.pledges.CreatePledge(ctx, CreatePledgeInput{SupporterID: e.backer.ID, ProjectID: project.ID, Amount: 5})
	assertCode(t, err, models.CodeValidation)

	var n int64
	require.NoError(t, e.db.Model(&models.Pledge{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeletePledge_Permissions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "Choir", month).Project
	other := e.createProject(t, "Other", month).Project
	first := e.pledge(t, project.ID, 10)
	second := e.pledge(t, project.ID, 20)

	err := e.pledges.DeletePledge(ctx, DeletePledgeInput{UserID: e.owner.ID, ProjectID: project.ID, PledgeID: first.ID})
	assertCode(t, err, models.CodeForbidden)

	err = e.pledges.DeletePledge(ctx, DeletePledgeInput{UserID: e.backer.ID, ProjectID: other.ID, PledgeID: first.ID})
	assertCode(t, err, models.CodeNotFound)

	require.NoError(t, e.pledges.DeletePledge(ctx, DeletePledgeInput{UserID: e.backer.ID, ProjectID: project.ID, PledgeID: first.ID}))
	require.NoError(t, e.pledges.DeletePledge(ctx, DeletePledgeInput{UserID: e.admin.ID, ProjectID: project.ID, PledgeID: second.ID}))
	assert.Zero(t, e.reload(t, project.ID).PledgeCount)
}

func TestGetPledge_ScopedToProject(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	project := e.createProject(t, "Choir", month).Project
	other := e.createProject(t, "Other", month).Project
	p := e.pledge(t, project.ID, 10)

	got, err := e.pledges.GetPledge(ctx, project.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.Amount)

	_, err = e.pledges.GetPledge(ctx, other.ID, p.ID)
	assertCode(t, err, models.CodeNotFound)
}
