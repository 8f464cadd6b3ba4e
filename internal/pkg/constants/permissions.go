package constants

const (
	ManageCampaigns   = "manage_campaigns"
	ManageRequests    = "manage_requests"
	ViewRequests      = "view_requests"
	SubmitQuotation   = "submit_quotation"
	AcceptQuotation   = "accept_quotation"
	FulfilTransaction = "fulfil_transaction"
	SettleTransaction = "settle_transaction"
	ViewTransactions  = "view_transactions"
	ViewMarketEvents  = "view_market_events"
	UploadVendorFiles = "upload_vendor_files"
)

// PermissionRoles maps each permission to the roles allowed to perform it. Ownership of
// the target entity is checked again inside each service.
var PermissionRoles = map[string][]string{
	ManageCampaigns:   {Charity},
	ManageRequests:    {Charity},
	ViewRequests:      {Charity, Vendor, Admin},
	SubmitQuotation:   {Vendor},
	AcceptQuotation:   {Charity},
	FulfilTransaction: {Vendor},
	SettleTransaction: {Charity},
	ViewTransactions:  {Charity, Vendor},
	ViewMarketEvents:  {Charity, Vendor, Admin},
	UploadVendorFiles: {Vendor},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	return contains(roles, role)
}
