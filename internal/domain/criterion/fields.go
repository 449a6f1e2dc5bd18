package criterion

import "strings"

// fieldTypes maps lower-cased record field names to the entity type they hold.
var fieldTypes = map[string]Type{
	"phone":          Phone,
	"phone_no":       Phone,
	"phone_number":   Phone,
	"mobile":         Phone,
	"mobile_no":      Phone,
	"mobile_number":  Phone,
	"contact_no":     Phone,
	"contact_number": Phone,
	"alt_phone":      Phone,

	"email":         Email,
	"email_id":      Email,
	"email_address": Email,

	"name":          Name,
	"full_name":     Name,
	"customer_name": Name,
	"holder_name":   Name,
	"account_name":  Name,

	"city":     Location,
	"district": Location,
	"town":     Location,
	"location": Location,
	"state":    Location,

	"company":      Company,
	"company_name": Company,
	"employer":     Company,
	"organization": Company,
	"organisation": Company,

	"pan":      GovernmentID,
	"pan_no":   GovernmentID,
	"aadhaar":  GovernmentID,
	"aadhar":   GovernmentID,
	"voter_id": GovernmentID,
	"passport": GovernmentID,

	"account":        Account,
	"account_no":     Account,
	"account_number": Account,
	"acct_no":        Account,
}

// FieldType returns the entity type stored under a record field name.
func FieldType(field string) (Type, bool) {
	t, ok := fieldTypes[strings.ToLower(strings.TrimSpace(field))]
	return t, ok
}
