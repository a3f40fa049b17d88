package model

// Organization membership resolved through user_organizations. RoleName
// is the role the user holds inside that organization.
type Organization struct {
	OrgID    int    `json:"org_id"`
	OrgName  string `json:"org_name"`
	RoleName string `json:"role_name"`
}
