package passlog

const Schema = `
CREATE TABLE IF NOT EXISTS export_pass (
    id TEXT NOT NULL PRIMARY KEY,
    export_date INTEGER NOT NULL,
    total_chats INTEGER NOT NULL,
    skipped_unread_chats INTEGER NOT NULL,
    chats_with_new_messages INTEGER NOT NULL,
    new_messages_total INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS export_pass_chat (
    pass_id TEXT NOT NULL,
    chat_name TEXT NOT NULL,
    display_name TEXT NOT NULL,
    file_name TEXT NOT NULL,
    new_messages INTEGER NOT NULL,
    total_messages INTEGER NOT NULL,
    FOREIGN KEY (pass_id) REFERENCES export_pass (id)
);

CREATE INDEX IF NOT EXISTS idx_export_pass_date ON export_pass (export_date);
`
