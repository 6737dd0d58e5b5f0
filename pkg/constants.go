package shared

const (
	ServiceName = "csv-verify"

	DefaultExercisesPath = "exercises.json"
	DefaultExportPath    = "WorkoutExport.csv"

	CollectionUsers     = "users"
	CollectionWorkouts  = "workouts"
	CollectionExercises = "exercises"

	EventTypeVerificationCompleted = "com.fitglue.csv_verification.completed"
)
