package commands

// ImportDataPointsCommand triggers a reconciliation against the upstream
// data point service
type ImportDataPointsCommand struct{}

// Validate validates the ImportDataPointsCommand
func (c ImportDataPointsCommand) Validate() error {
	return nil
}
