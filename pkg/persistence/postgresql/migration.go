package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				type_id VARCHAR(100) NOT NULL UNIQUE,
				department_id VARCHAR(100),
				active BOOLEAN NOT NULL DEFAULT TRUE,
				nodes JSONB NOT NULL,
				edges JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_type_id ON workflows(type_id);

			CREATE TABLE solicitations (
				id UUID PRIMARY KEY,
				protocolo VARCHAR(30) NOT NULL UNIQUE,
				type_id VARCHAR(100) NOT NULL,
				department_id VARCHAR(100) NOT NULL,
				cost_center_id VARCHAR(100) NOT NULL,
				solicitante_id VARCHAR(100) NOT NULL,
				parent_id UUID REFERENCES solicitations(id),
				status VARCHAR(30) NOT NULL,
				approval_status VARCHAR(20) NOT NULL,
				current_step_key VARCHAR(100),
				payload JSONB,
				requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_solicitations_type_id ON solicitations(type_id);
			CREATE INDEX idx_solicitations_status ON solicitations(status);
			CREATE INDEX idx_solicitations_parent_id ON solicitations(parent_id);

			CREATE TABLE timeline_events (
				id UUID PRIMARY KEY,
				solicitation_id UUID NOT NULL REFERENCES solicitations(id),
				status VARCHAR(30) NOT NULL,
				message TEXT NOT NULL,
				actor_id VARCHAR(100),
				tipo VARCHAR(30) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_timeline_events_solicitation_id ON timeline_events(solicitation_id);

			CREATE TABLE attachments (
				id UUID PRIMARY KEY,
				solicitation_id UUID NOT NULL REFERENCES solicitations(id),
				file_name VARCHAR(255) NOT NULL,
				content_type VARCHAR(100),
				size BIGINT NOT NULL DEFAULT 0,
				blob_key VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_attachments_solicitation_id ON attachments(solicitation_id);
		`,
	}
}
