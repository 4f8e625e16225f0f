package server

import (
	"time"

	"crelo/internal/models"
	"crelo/internal/service"
)

// UserSummary identifies a user inside other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

// UserView is the public profile. Email stays private.
type UserView struct {
	ID                  uint                     `json:"id"`
	Username            string                   `json:"username"`
	Bio                 string                   `json:"bio"`
	Image               string                   `json:"image"`
	IsAdmin             bool                     `json:"is_admin"`
	LocationID          uint                     `json:"location_id"`
	Location            *models.Location         `json:"location,omitempty"`
	FavouriteCategories []models.ProjectCategory `json:"favourite_categories"`
	DateJoined          time.Time                `json:"date_joined"`
}

// AccountView is the caller's own profile with the projects and pledges they own.
type AccountView struct {
	UserView
	Email    string        `json:"email"`
	Projects []ProjectView `json:"projects"`
	Pledges  []PledgeView  `json:"pledges"`
}

// ProjectView is the base project read model used by every list endpoint.
type ProjectView struct {
	ID                       uint                    `json:"id"`
	Title                    string                  `json:"title"`
	Venue                    string                  `json:"venue"`
	Description              string                  `json:"description"`
	GoalAmount               int64                   `json:"goal_amount"`
	Image                    string                  `json:"image"`
	IsOpen                   bool                    `json:"is_open"`
	DueDate                  time.Time               `json:"due_date"`
	DateCreated              time.Time               `json:"date_created"`
	TotalPledged             int64                   `json:"total_pledged"`
	CurrentPercentagePledged float64                 `json:"current_percentage_pledged"`
	LastMilestone            int                     `json:"last_milestone"`
	LastChanceTriggered      bool                    `json:"last_chance_triggered"`
	Owner                    *UserSummary            `json:"owner,omitempty"`
	OwnerID                  uint                    `json:"owner_id"`
	LocationID               uint                    `json:"location_id"`
	Location                 *models.Location        `json:"location,omitempty"`
	CategoryID               uint                    `json:"category_id"`
	Category                 *models.ProjectCategory `json:"category,omitempty"`
	PledgeTypeID             uint                    `json:"pledge_type_id"`
	PledgeType               *models.PledgeType      `json:"pledge_type,omitempty"`
}

// ProjectDetailView adds the project's pledges, updates and feed entries.
type ProjectDetailView struct {
	ProjectView
	Pledges         []PledgeView         `json:"pledges"`
	ProgressUpdates []ProgressUpdateView `json:"progress_updates"`
	Activities      []ActivityView       `json:"activities"`
	// Analytics is only present for the owner.
	Analytics *ProjectAnalytics `json:"analytics,omitempty"`
}

// ProjectAnalytics is the owner's engagement summary.
type ProjectAnalytics struct {
	PledgeCount    int64   `json:"pledge_count"`
	ViewCount      int64   `json:"view_count"`
	ConversionRate float64 `json:"conversion_rate"`
	AveragePledge  float64 `json:"average_pledge"`
}

// PledgeView hides the supporter of anonymous pledges.
type PledgeView struct {
	ID          uint               `json:"id"`
	Amount      int64              `json:"amount"`
	Comment     string             `json:"comment"`
	Anonymous   bool               `json:"anonymous"`
	ProjectID   uint               `json:"project_id"`
	Supporter   *UserSummary       `json:"supporter"`
	PledgeType  *models.PledgeType `json:"pledge_type,omitempty"`
	DateCreated time.Time          `json:"date_created"`
}

type ProgressUpdateView struct {
	ID          uint      `json:"id"`
	ProjectID   uint      `json:"project_id"`
	Content     string    `json:"content"`
	Image       string    `json:"image"`
	DateCreated time.Time `json:"date_created"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ActivityView struct {
	ID           uint                  `json:"id"`
	Action       models.ActivityAction `json:"action"`
	Info         string                `json:"info"`
	Image        string                `json:"image"`
	DateCreated  time.Time             `json:"date_created"`
	LocationID   uint                  `json:"location_id"`
	ProjectID    uint                  `json:"project_id"`
	ProjectTitle string                `json:"project_title,omitempty"`
	User         *UserSummary          `json:"user,omitempty"`
}

func userSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Image: u.Image}
}

func newUserView(u *models.User) UserView {
	favourites := u.FavouriteCategories
	if favourites == nil {
		favourites = []models.ProjectCategory{}
	}
	return UserView{
		ID:                  u.ID,
		Username:            u.Username,
		Bio:                 u.Bio,
		Image:               u.Image,
		IsAdmin:             u.IsAdmin,
		LocationID:          u.LocationID,
		Location:            u.Location,
		FavouriteCategories: favourites,
		DateJoined:          u.CreatedAt,
	}
}

func newUserViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, newUserView(&users[i]))
	}
	return out
}

func newAccountView(u *models.User, projects []service.ProjectStats, pledges []models.Pledge) AccountView {
	return AccountView{
		UserView: newUserView(u),
		Email:    u.Email,
		Projects: newProjectViews(projects),
		Pledges:  newPledgeViews(pledges),
	}
}

func newProjectView(stats service.ProjectStats) ProjectView {
	p := stats.Project
	return ProjectView{
		ID:                       p.ID,
		Title:                    p.Title,
		Venue:                    p.Venue,
		Description:              p.Description,
		GoalAmount:               p.GoalAmount,
		Image:                    p.Image,
		IsOpen:                   stats.IsOpen,
		DueDate:                  p.DueDate,
		DateCreated:              p.DateCreated,
		TotalPledged:             stats.Totals.Amount,
		CurrentPercentagePledged: stats.Percentage,
		LastMilestone:            p.LastMilestone,
		LastChanceTriggered:      p.LastChanceTriggered,
		Owner:                    userSummary(p.Owner),
		OwnerID:                  p.OwnerID,
		LocationID:               p.LocationID,
		Location:                 p.Location,
		CategoryID:               p.CategoryID,
		Category:                 p.Category,
		PledgeTypeID:             p.PledgeTypeID,
		PledgeType:               p.PledgeType,
	}
}

func newProjectViews(list []service.ProjectStats) []ProjectView {
	out := make([]ProjectView, 0, len(list))
	for _, stats := range list {
		out = append(out, newProjectView(stats))
	}
	return out
}

func newProjectDetailView(detail *service.ProjectDetail) ProjectDetailView {
	view := ProjectDetailView{
		ProjectView:     newProjectView(detail.ProjectStats),
		Pledges:         newPledgeViews(detail.Pledges),
		ProgressUpdates: newProgressUpdateViews(detail.ProgressUpdates),
		Activities:      newActivityViews(detail.Activities),
	}
	if a := detail.Analytics; a != nil {
		view.Analytics = &ProjectAnalytics{
			PledgeCount:    a.PledgeCount,
			ViewCount:      a.ViewCount,
			ConversionRate: a.ConversionRate,
			AveragePledge:  a.AveragePledge,
		}
	}
	return view
}

func newPledgeView(p *models.Pledge) PledgeView {
	view := PledgeView{
		ID:          p.ID,
		Amount:      p.Amount,
		Comment:     p.Comment,
		Anonymous:   p.Anonymous,
		ProjectID:   p.ProjectID,
		PledgeType:  p.PledgeType,
		DateCreated: p.DateCreated,
	}
	if !p.Anonymous {
		view.Supporter = userSummary(p.Supporter)
	}
	return view
}

func newPledgeViews(pledges []models.Pledge) []PledgeView {
	out := make([]PledgeView, 0, len(pledges))
	for i := range pledges {
		out = append(out, newPledgeView(&pledges[i]))
	}
	return out
}

func newProgressUpdateView(u *models.ProgressUpdate) ProgressUpdateView {
	return ProgressUpdateView{
		ID:          u.ID,
		ProjectID:   u.ProjectID,
		Content:     u.Content,
		Image:       u.Image,
		DateCreated: u.DateCreated,
		UpdatedAt:   u.UpdatedAt,
	}
}

func newProgressUpdateViews(updates []models.ProgressUpdate) []ProgressUpdateView {
	out := make([]ProgressUpdateView, 0, len(updates))
	for i := range updates {
		out = append(out, newProgressUpdateView(&updates[i]))
	}
	return out
}

func newActivityViews(activities []models.Activity) []ActivityView {
	out := make([]ActivityView, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		view := ActivityView{
			ID:          a.ID,
			Action:      a.Action,
			Info:        a.Info,
			Image:       a.Image,
			DateCreated: a.DateCreated,
			LocationID:  a.LocationID,
			ProjectID:   a.ProjectID,
			User:        userSummary(a.User),
		}
		if a.Project != nil {
			view.ProjectTitle = a.Project.Title
		}
		out = append(out, view)
	}
	return out
}
