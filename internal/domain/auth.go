package domain

// AdminRole enumerates operator roles carried by CMS-issued tokens.
// Credential verification happens in the external CMS; this service only
// trusts the signed role claim.
type AdminRole string

const (
	AdminRoleAdmin     AdminRole = "ADMIN"
	AdminRoleCommittee AdminRole = "COMMITTEE"
)
