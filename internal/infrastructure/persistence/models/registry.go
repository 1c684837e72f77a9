package models

// OwnedModels are the tables this service creates and writes.
func OwnedModels() []any {
	return []any{
		&BranchVendorSettingsModel{},
		&VendorTokenModel{},
		&AccessZoneModel{},
		&AccessDoorModel{},
		&MembershipAccessPermissionModel{},
		&MemberAccessOverrideModel{},
		&MemberAccessCredentialModel{},
		&VendorPersonModel{},
		&AccessEventModel{},
		&AttendanceSessionModel{},
		&SyncLogModel{},
	}
}

// PlatformModels are read-only tables owned by the gym platform.
func PlatformModels() []any {
	return []any{
		&MemberModel{},
		&MembershipModel{},
	}
}
