package wizard

import (
	"regexp"
	"strings"

	"dealership/internal/model"

	"github.com/shopspring/decimal"
)

// Application form field names, shared with the API payload.
const (
	FieldFirstName            = "firstName"
	FieldLastName             = "lastName"
	FieldEmail                = "email"
	FieldPhone                = "phone"
	FieldBusinessName         = "businessName"
	FieldBusinessType         = "businessType"
	FieldGSTNumber            = "gstNumber"
	FieldPANNumber            = "panNumber"
	FieldYearsInBusiness      = "yearsInBusiness"
	FieldInvestmentCapacity   = "investmentCapacity"
	FieldExpectedMonthlySales = "expectedMonthlySales"
	FieldExistingBusiness     = "existingBusiness"
	FieldReasonForInterest    = "reasonForInterest"
	FieldAddress              = "address"
	FieldCity                 = "city"
	FieldState                = "state"
	FieldPincode              = "pincode"
	FieldArea                 = "area"
)

// Status dialog field names.
const (
	FieldStatus          = "status"
	FieldNotes           = "notes"
	FieldRejectionReason = "rejectionReason"
)

var (
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	gstPattern     = regexp.MustCompile(`^[0-9A-Z]{15}$`)
)

// MaxMonthlySales is the first amount a decimal(14,2) column cannot hold.
var MaxMonthlySales = decimal.New(1, 12)

// IndianStates is the fixed list offered by the location step.
var IndianStates = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand",
	"Karnataka", "Kerala", "Madhya Pradesh", "Maharashtra", "Manipur",
	"Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab",
	"Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura",
	"Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh", "Dadra and Nagar Haveli and Daman and Diu",
	"Delhi", "Jammu and Kashmir", "Ladakh", "Lakshadweep", "Puducherry",
}

// ApplicationForm is the public four-step dealership application.
func ApplicationForm() Form {
	return Form{Steps: []Step{
		{
			Name: "Personal Information",
			Fields: []Field{
				{Name: FieldFirstName, Label: "First name", Max: 50},
				{Name: FieldLastName, Label: "Last name", Max: 50},
				{Name: FieldEmail, Label: "Email", Max: 100, Rules: []Rule{Email("Invalid email address")}},
				{Name: FieldPhone, Label: "Phone number", Rules: []Rule{Matches(phonePattern, "Phone number must be 10 digits")}},
			},
		},
		{
			Name: "Business Details",
			Fields: []Field{
				{Name: FieldBusinessName, Label: "Business name", Max: 100},
				{Name: FieldBusinessType, Label: "Business type", Max: 50},
				{Name: FieldGSTNumber, Label: "GST number", Optional: true, Rules: []Rule{Matches(gstPattern, "Invalid GST Number")}},
				{Name: FieldPANNumber, Label: "PAN Number", Rules: []Rule{Matches(panPattern, "Invalid PAN Number")}},
				{Name: FieldYearsInBusiness, Label: "Years in business", Rules: []Rule{NonNegativeInt("Years in business must be a whole number")}},
				{Name: FieldInvestmentCapacity, Label: "Investment capacity", Optional: true, Max: 50},
				{Name: FieldExpectedMonthlySales, Label: "Expected monthly sales", Optional: true, Rules: []Rule{
					NonNegativeNumber("Expected monthly sales must be a positive number"),
					Below(MaxMonthlySales, "Expected monthly sales must be less than "+MaxMonthlySales.String()),
				}},
				{Name: FieldExistingBusiness, Label: "Existing business", Optional: true},
				{Name: FieldReasonForInterest, Label: "Reason for interest", Optional: true},
			},
		},
		{
			Name: "Location Information",
			Fields: []Field{
				{Name: FieldAddress, Label: "Address"},
				{Name: FieldCity, Label: "City", Max: 50},
				{Name: FieldState, Label: "State", Rules: []Rule{OneOf(IndianStates, "Select a state from the list")}},
				{Name: FieldPincode, Label: "Pincode", Rules: []Rule{Matches(pincodePattern, "Pincode must be 6 digits")}},
				{Name: FieldArea, Label: "Area", Max: 100},
			},
		},
		{Name: "Review & Submit"},
	}}
}

// StatusForm is the back-office dialog used to move an application to a new
// status: pick the status, add notes (a reason when rejecting), confirm.
func StatusForm() Form {
	statuses := make([]string, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		statuses = append(statuses, string(s))
	}
	return Form{Steps: []Step{
		{
			Name: "Status",
			Fields: []Field{
				{Name: FieldStatus, Label: "Status", Rules: []Rule{OneOf(statuses, "Unknown status")}},
			},
		},
		{
			Name: "Notes",
			Fields: []Field{
				{Name: FieldNotes, Label: "Notes", Optional: true},
				{Name: FieldRejectionReason, Label: "Rejection reason", Optional: true},
			},
			Check: func(values Values) FieldErrors {
				if values[FieldStatus] == string(model.StatusRejected) && strings.TrimSpace(values[FieldRejectionReason]) == "" {
					return FieldErrors{FieldRejectionReason: "A rejection reason is required"}
				}
				return nil
			},
		},
		{Name: "Confirm"},
	}}
}
