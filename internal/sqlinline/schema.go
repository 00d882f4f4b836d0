package sqlinline

// QEnsureSchema creates the tables used by the key and settings stores.
const QEnsureSchema = `--sql 8f020273-0267-4389-8e7d-4accf408af51
create table if not exists provider_keys (
  id uuid primary key,
  provider text not null,
  position int not null default 0,
  api_key text not null,
  created_at timestamptz not null default now(),
  unique (provider, api_key)
);
create table if not exists app_settings (
  id text primary key,
  document jsonb not null,
  updated_at timestamptz not null default now()
);
`
