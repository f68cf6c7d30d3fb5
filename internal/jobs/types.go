package jobs

type JobType string

const (
	JobOrderConfirmation JobType = "order_confirmation"
	JobDeliveryAssigned  JobType = "delivery_assigned"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobOrderConfirmation, JobDeliveryAssigned:
		return true
	default:
		return false
	}
}
