package models

// AdminTotals counts the live content of the site.
type AdminTotals struct {
	Users     int64 `json:"users"`
	Questions int64 `json:"questions"`
	Answers   int64 `json:"answers"`
	Tags      int64 `json:"tags"`
}

// AdminRecent counts what was created during the recent window.
type AdminRecent struct {
	Users     int64 `json:"users"`
	Questions int64 `json:"questions"`
	Answers   int64 `json:"answers"`
}

// AdminStats is the dashboard payload of GET /admin/stats.
type AdminStats struct {
	Totals          AdminTotals     `json:"totals"`
	Recent          AdminRecent     `json:"recent"`
	TopUsers        []*UserSummary  `json:"topUsers"`
	PopularTags     []*Tag          `json:"popularTags"`
	RecentQuestions []*QuestionView `json:"recentQuestions"`
}

type FeatureQuestionRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

func (r *FeatureQuestionRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"featured.required": "featured is required",
	})
}
