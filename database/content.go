package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sahaya-donation-api/models"
)

var ErrNotFound = errors.New("record not found")

// --- Blogs ---

func (c *Connection) GetBlogs(ctx context.Context, publishedOnly bool) ([]models.Blog, error) {
	query := `
        SELECT id, title, author, content, image_url, published, created_at, updated_at
        FROM blogs
    `
	if publishedOnly {
		query += " WHERE published = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying blogs: %v", err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	for rows.Next() {
		var b models.Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Content,
			&b.ImageURL, &b.Published, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning blog: %v", err)
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

func (c *Connection) GetBlogByID(ctx context.Context, id string) (*models.Blog, error) {
	var b models.Blog
	err := c.db.QueryRowContext(ctx, `
        SELECT id, title, author, content, image_url, published, created_at, updated_at
        FROM blogs WHERE id = ?
    `, id).Scan(&b.ID, &b.Title, &b.Author, &b.Content, &b.ImageURL,
		&b.Published, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching blog %s: %v", id, err)
	}
	return &b, nil
}

func (c *Connection) CreateBlog(ctx context.Context, b *models.Blog) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO blogs (id, title, author, content, image_url, published, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, b.ID, b.Title, b.Author, b.Content, b.ImageURL, b.Published, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting blog: %v", err)
	}
	return nil
}

func (c *Connection) UpdateBlog(ctx context.Context, b *models.Blog) error {
	result, err := c.db.ExecContext(ctx, `
        UPDATE blogs SET title = ?, author = ?, content = ?, image_url = ?,
            published = ?, updated_at = ?
        WHERE id = ?
    `, b.Title, b.Author, b.Content, b.ImageURL, b.Published, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("error updating blog %s: %v", b.ID, err)
	}
	return checkAffected(result)
}

func (c *Connection) DeleteBlog(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM blogs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting blog %s: %v", id, err)
	}
	return checkAffected(result)
}

// --- Events ---

func (c *Connection) GetEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, title, description, location, image_url, starts_at, ends_at, created_at
        FROM events ORDER BY starts_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %v", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location,
			&e.ImageURL, &e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning event: %v", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (c *Connection) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := c.db.QueryRowContext(ctx, `
        SELECT id, title, description, location, image_url, starts_at, ends_at, created_at
        FROM events WHERE id = ?
    `, id).Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.ImageURL,
		&e.StartsAt, &e.EndsAt, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching event %s: %v", id, err)
	}
	return &e, nil
}

func (c *Connection) CreateEvent(ctx context.Context, e *models.Event) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO events (id, title, description, location, image_url, starts_at, ends_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, e.ID, e.Title, e.Description, e.Location, e.ImageURL, e.StartsAt, e.EndsAt, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting event: %v", err)
	}
	return nil
}

func (c *Connection) UpdateEvent(ctx context.Context, e *models.Event) error {
	result, err := c.db.ExecContext(ctx, `
        UPDATE events SET title = ?, description = ?, location = ?, image_url = ?,
            starts_at = ?, ends_at = ?
        WHERE id = ?
    `, e.Title, e.Description, e.Location, e.ImageURL, e.StartsAt, e.EndsAt, e.ID)
	if err != nil {
		return fmt.Errorf("error updating event %s: %v", e.ID, err)
	}
	return checkAffected(result)
}

func (c *Connection) DeleteEvent(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting event %s: %v", id, err)
	}
	return checkAffected(result)
}

// --- Projects ---

func (c *Connection) GetProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, title, description, image_url, status, created_at
        FROM projects ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("error querying projects: %v", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL,
			&p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning project: %v", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (c *Connection) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := c.db.QueryRowContext(ctx, `
        SELECT id, title, description, image_url, status, created_at
        FROM projects WHERE id = ?
    `, id).Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching project %s: %v", id, err)
	}
	return &p, nil
}

func (c *Connection) CreateProject(ctx context.Context, p *models.Project) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO projects (id, title, description, image_url, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, p.ID, p.Title, p.Description, p.ImageURL, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting project: %v", err)
	}
	return nil
}

func (c *Connection) UpdateProject(ctx context.Context, p *models.Project) error {
	result, err := c.db.ExecContext(ctx, `
        UPDATE projects SET title = ?, description = ?, image_url = ?, status = ?
        WHERE id = ?
    `, p.Title, p.Description, p.ImageURL, p.Status, p.ID)
	if err != nil {
		return fmt.Errorf("error updating project %s: %v", p.ID, err)
	}
	return checkAffected(result)
}

func (c *Connection) DeleteProject(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting project %s: %v", id, err)
	}
	return checkAffected(result)
}

// --- Gallery ---

func (c *Connection) GetGalleryItems(ctx context.Context) ([]models.GalleryItem, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, title, media_url, media_type, created_at
        FROM gallery_items ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("error querying gallery items: %v", err)
	}
	defer rows.Close()

	items := make([]models.GalleryItem, 0)
	for rows.Next() {
		var g models.GalleryItem
		if err := rows.Scan(&g.ID, &g.Title, &g.MediaURL, &g.MediaType, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning gallery item: %v", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (c *Connection) CreateGalleryItem(ctx context.Context, g *models.GalleryItem) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO gallery_items (id, title, media_url, media_type, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, g.ID, g.Title, g.MediaURL, g.MediaType, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting gallery item: %v", err)
	}
	return nil
}

func (c *Connection) DeleteGalleryItem(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM gallery_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting gallery item %s: %v", id, err)
	}
	return checkAffected(result)
}

// --- Team ---

func (c *Connection) GetTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, name, role, bio, photo_url, created_at
        FROM team_members ORDER BY created_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("error querying team members: %v", err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Bio, &m.PhotoURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning team member: %v", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (c *Connection) CreateTeamMember(ctx context.Context, m *models.TeamMember) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO team_members (id, name, role, bio, photo_url, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, m.ID, m.Name, m.Role, m.Bio, m.PhotoURL, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting team member: %v", err)
	}
	return nil
}

func (c *Connection) UpdateTeamMember(ctx context.Context, m *models.TeamMember) error {
	result, err := c.db.ExecContext(ctx, `
        UPDATE team_members SET name = ?, role = ?, bio = ?, photo_url = ?
        WHERE id = ?
    `, m.Name, m.Role, m.Bio, m.PhotoURL, m.ID)
	if err != nil {
		return fmt.Errorf("error updating team member %s: %v", m.ID, err)
	}
	return checkAffected(result)
}

func (c *Connection) DeleteTeamMember(ctx context.Context, id string) error {
	result, err := c.db.ExecContext(ctx, "DELETE FROM team_members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting team member %s: %v", id, err)
	}
	return checkAffected(result)
}

// --- Contact ---

func (c *Connection) SaveContactMessage(ctx context.Context, m *models.ContactMessage) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO contact_messages (id, name, email, subject, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting contact message: %v", err)
	}
	return nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
