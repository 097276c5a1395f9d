package models

// CommentModel is a comment on a published resource.
type CommentModel struct {
	Base
	Body       string `json:"body"        gorm:"size:2048;not null"`
	AuthorID   string `json:"author_id"   gorm:"type:char(36);index;not null"`
	ResourceID string `json:"resource_id" gorm:"type:char(36);index;not null"`

	Author   *UserModel     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Resource *ResourceModel `json:"-" gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE"`
}

func (CommentModel) TableName() string { return "resource_comments" }

// SubmissionCommentModel is a moderation discussion entry on a submission.
type SubmissionCommentModel struct {
	Base
	Body         string `json:"body"          gorm:"size:2048;not null"`
	AuthorID     string `json:"author_id"     gorm:"type:char(36);index;not null"`
	SubmissionID string `json:"submission_id" gorm:"type:char(36);index;not null"`

	Author     *UserModel       `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Submission *SubmissionModel `json:"-" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (SubmissionCommentModel) TableName() string { return "submission_comments" }
