package repository

// Database is what the shutdown path needs from a database wrapper.
type Database interface {
	Close() error
}

// Repositories holds the repository a service owns. Only the field matching
// the running service is set.
type Repositories struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
	Database Database
}
