package sqlinline

const QSelectAppSettings = `--sql e70403da-3202-4c89-a522-57f241107cff
select document
from app_settings
where id = $1::text
limit 1;
`

const QUpsertAppSettings = `--sql d529b203-9638-49e9-8553-38dc3ff5de14
insert into app_settings (id, document, updated_at)
values ($1::text, $2::jsonb, now())
on conflict (id) do update set
    document = excluded.document,
    updated_at = now();
`
