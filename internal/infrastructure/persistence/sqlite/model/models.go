package model

// All lists every persisted model in dependency order for auto-migration.
func All() []any {
	return []any{
		&Run{},
		&Detector{},
		&FlpRole{},
		&DetectorsInRun{},
		&Log{},
		&LogRun{},
		&Attachment{},
		&User{},
		&SubSystem{},
		&SubSystemPermission{},
		&InfoLog{},
		&KV{},
	}
}
