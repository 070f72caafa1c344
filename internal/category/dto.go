package category

type CategoryResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	RequiresApproval  bool   `json:"requires_approval"`
	ApprovalThreshold int64  `json:"approval_threshold"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}
