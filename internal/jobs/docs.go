// Package jobs provides scheduled background tasks of the work order service.
//
// Jobs are built on github.com/robfig/cron/v3 and run with second precision.
//
// # Available Jobs
//
// NotificationRedeliveryJob re-pushes Pending notification records to their recipients' live
// connections. A record accepted by a connection becomes Sent; a record that nobody accepted
// within the maximum pending age becomes Failed. Unaccepted attempts are recorded on the record,
// so each run starts with records that were never retried and a backlog of offline recipients
// cannot hold newer records back.
//
// # Usage
//
//	redelivery, err := jobs.NewNotificationRedeliveryJob(store, dispatcher, m, logger, jobs.RedeliveryOptions{})
//	if err != nil {
//		return err
//	}
//	manager := jobs.NewJobManager(redelivery)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// # Error Handling
//
// Run errors are logged and never stop the schedule. A run that is still busy when the next
// tick fires makes that tick a no-op.
package jobs
